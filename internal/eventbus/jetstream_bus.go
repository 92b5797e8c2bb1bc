package eventbus

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	nats "github.com/nats-io/nats.go"
)

const (
	subjectPrefix = "events"
	// headerSource позволяет отсеять чужие источники без разбора JSON
	headerSource = "Sandbox-Source"
	// dedupWindow окно, в котором повторная публикация того же ID отбрасывается сервером
	dedupWindow = 2 * time.Minute
)

// subjectFor возвращает subject для типа события: block.placed -> events.block.placed
func subjectFor(eventType string) string {
	return subjectPrefix + "." + eventType
}

// subjectsFor переводит фильтр по типам в subjects, чтобы отбор шёл на сервере.
// Пустой фильтр означает все события.
func subjectsFor(f Filter) []string {
	if len(f.Types) == 0 {
		return []string{subjectPrefix + ".>"}
	}
	seen := make(map[string]struct{}, len(f.Types))
	out := make([]string, 0, len(f.Types))
	for _, t := range f.Types {
		subj := subjectFor(t)
		if _, ok := seen[subj]; ok {
			continue
		}
		seen[subj] = struct{}{}
		out = append(out, subj)
	}
	return out
}

// JetStreamBus реализует EventBus поверх NATS JetStream. Каждый тип события
// публикуется в свой subject, ID конверта служит ключом дедупликации.
type JetStreamBus struct {
	nc     *nats.Conn
	js     nats.JetStreamContext
	stream string

	published  atomic.Uint64
	consumed   atomic.Uint64
	dropped    atomic.Uint64
	duplicates atomic.Uint64
}

// NewJetStreamBus подключается к NATS и гарантирует наличие стрима
// (url: nats://127.0.0.1:4222, stream: SANDBOX_EVENTS).
func NewJetStreamBus(url, stream string, retention time.Duration) (*JetStreamBus, error) {
	if stream == "" {
		stream = "SANDBOX_EVENTS"
	}

	nc, err := nats.Connect(url, nats.Name("sandbox-eventbus"))
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	js, err := nc.JetStream()
	if err != nil {
		nc.Drain()
		return nil, fmt.Errorf("jetstream: %w", err)
	}

	if _, err := js.StreamInfo(stream); err != nil {
		_, err = js.AddStream(&nats.StreamConfig{
			Name:       stream,
			Subjects:   []string{subjectPrefix + ".>"},
			Retention:  nats.LimitsPolicy,
			MaxAge:     retention,
			Storage:    nats.FileStorage,
			Duplicates: dedupWindow,
		})
		if err != nil {
			nc.Drain()
			return nil, fmt.Errorf("add stream %s: %w", stream, err)
		}
	}

	return &JetStreamBus{nc: nc, js: js, stream: stream}, nil
}

// Publish отправляет конверт в subject его типа
func (jb *JetStreamBus) Publish(ctx context.Context, ev *Envelope) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}

	msg := nats.NewMsg(subjectFor(ev.EventType))
	msg.Data = data
	msg.Header.Set(headerSource, ev.Source)

	ack, err := jb.js.PublishMsg(msg, nats.MsgId(ev.ID), nats.Context(ctx))
	if err != nil {
		jb.dropped.Add(1)
		return fmt.Errorf("публикация %s: %w", ev.EventType, err)
	}
	if ack.Duplicate {
		jb.duplicates.Add(1)
		return nil
	}
	jb.published.Add(1)
	return nil
}

// Subscribe создаёт по эфемерному consumer на каждый subject фильтра.
// Доставляются только новые события; отмена ctx снимает подписку.
func (jb *JetStreamBus) Subscribe(ctx context.Context, f Filter, h Handler) (Subscription, error) {
	handle := func(msg *nats.Msg) {
		defer msg.Ack()
		if len(f.Sources) > 0 && !contains(f.Sources, msg.Header.Get(headerSource)) {
			return
		}
		var ev Envelope
		if err := json.Unmarshal(msg.Data, &ev); err != nil {
			jb.dropped.Add(1)
			return
		}
		if !matchFilter(&ev, f) {
			return
		}
		h(ctx, &ev)
		jb.consumed.Add(1)
	}

	sub := &jetSub{}
	for _, subj := range subjectsFor(f) {
		s, err := jb.js.Subscribe(subj, handle,
			nats.BindStream(jb.stream),
			nats.DeliverNew(),
			nats.ManualAck(),
			nats.AckWait(30*time.Second),
		)
		if err != nil {
			sub.Unsubscribe()
			return nil, fmt.Errorf("подписка %s: %w", subj, err)
		}
		sub.subs = append(sub.subs, s)
	}

	go func() {
		<-ctx.Done()
		sub.Unsubscribe()
	}()
	return sub, nil
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

// jetSub объединяет подписки всех subjects фильтра
type jetSub struct {
	once sync.Once
	subs []*nats.Subscription
}

func (j *jetSub) Unsubscribe() {
	j.once.Do(func() {
		for _, s := range j.subs {
			_ = s.Unsubscribe()
		}
	})
}

// Metrics возвращает текущие метрики. Повторы, отброшенные сервером, не учитываются как публикации.
func (jb *JetStreamBus) Metrics() Stats {
	return Stats{
		Published: jb.published.Load(),
		Consumed:  jb.consumed.Load(),
		Dropped:   jb.dropped.Load(),
	}
}

// Duplicates число публикаций, распознанных сервером как повтор
func (jb *JetStreamBus) Duplicates() uint64 { return jb.duplicates.Load() }

// Close дожидается отправки буферизованных сообщений и закрывает соединение.
func (jb *JetStreamBus) Close() error {
	return jb.nc.Drain()
}

func retention(hours int) time.Duration {
	if hours <= 0 {
		return 24 * time.Hour
	}
	return time.Duration(hours) * time.Hour
}
