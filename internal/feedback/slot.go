package feedback

import "sync"

// Cue имя звукового сигнала; пустая строка означает тишину
type Cue string

// CueSink внешний исполнитель сигналов (аудио)
type CueSink interface {
	Start(cue Cue)
	Stop(cue Cue)
}

// Slot хранит единственный текущий сигнал сущности или действия.
// Прежний сигнал всегда останавливается до запуска следующего.
type Slot struct {
	mu      sync.Mutex
	sink    CueSink
	current Cue
	playing bool
}

// NewSlot создаёт пустой слот
func NewSlot(sink CueSink) *Slot {
	if sink == nil {
		sink = Discard
	}
	return &Slot{sink: sink}
}

// Current текущий сигнал и признак воспроизведения
func (s *Slot) Current() (Cue, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current, s.playing
}

// Switch переключает слот на next. Если next уже играет, ничего не происходит.
func (s *Slot) Switch(next Cue) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.playing && s.current == next {
		return
	}
	if s.playing {
		s.sink.Stop(s.current)
		s.playing = false
	}
	s.current = next
	if next != "" {
		s.sink.Start(next)
		s.playing = true
	}
}

// Select выбирает next без запуска; играющий прежний сигнал останавливается
func (s *Slot) Select(next Cue) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == next {
		return
	}
	if s.playing {
		s.sink.Stop(s.current)
		s.playing = false
	}
	s.current = next
}

// Play запускает сигнал текущего слота, если он выбран и стоит
func (s *Slot) Play() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.playing || s.current == "" {
		return
	}
	s.sink.Start(s.current)
	s.playing = true
}

// Stop останавливает сигнал, сохраняя выбор
func (s *Slot) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.playing {
		return
	}
	s.sink.Stop(s.current)
	s.playing = false
}

// Trigger разовый сигнал без слота (установка, разрушение блока)
func Trigger(sink CueSink, cue Cue) {
	if sink == nil || cue == "" {
		return
	}
	sink.Stop(cue)
	sink.Start(cue)
}

type discard struct{}

func (discard) Start(Cue) {}
func (discard) Stop(Cue)  {}

// Discard исполнитель, игнорирующий все сигналы
var Discard CueSink = discard{}

// Recorder запоминает переходы; используется в тестах и headless-режиме
type Recorder struct {
	mu     sync.Mutex
	events []string
}

func (r *Recorder) Start(cue Cue) { r.record("start:" + string(cue)) }
func (r *Recorder) Stop(cue Cue)  { r.record("stop:" + string(cue)) }

func (r *Recorder) record(e string) {
	r.mu.Lock()
	r.events = append(r.events, e)
	r.mu.Unlock()
}

// Events копия журнала переходов
func (r *Recorder) Events() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.events))
	copy(out, r.events)
	return out
}
