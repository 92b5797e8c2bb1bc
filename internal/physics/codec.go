package physics

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/vuongle2609/Minecraft/internal/vec"
	"github.com/vuongle2609/Minecraft/internal/world/block"
)

// ErrUnknownMessage тип сообщения не входит в протокол
var ErrUnknownMessage = errors.New("неизвестный тип сообщения")

// wireMessage форма сообщения на границе: {type, data}
type wireMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

type wireMovement struct {
	ForwardVector   [3]float64 `json:"forwardVectorArr"`
	DirectionVector [3]float64 `json:"directionVectorArr"`
	Position        [3]float64 `json:"position"`
	Delta           float64    `json:"delta"`
}

type wireBlock struct {
	Position [3]int `json:"position"`
	Type     string `json:"type,omitempty"`
}

type wireBulk struct {
	Blocks map[string]string `json:"blocks"`
}

type wireUpdate struct {
	Position      [3]float64 `json:"position"`
	OnGround      bool       `json:"onGround"`
	CollideObject string     `json:"collideObject,omitempty"`
	VelocityY     float64    `json:"vy"`
}

type wirePosition struct {
	Position [3]float64 `json:"position"`
}

func toWirePos(p vec.Vec3) [3]int { return [3]int{p.X, p.Y, p.Z} }
func fromWirePos(p [3]int) vec.Vec3 {
	return vec.SnapInts(p[0], p[1], p[2])
}

func typeName(t block.Type) string {
	if t == block.Air {
		return ""
	}
	return t.String()
}

func parseType(name string) (block.Type, error) {
	if name == "" {
		return block.Air, nil
	}
	k, ok := block.ByName(name)
	if !ok {
		return block.Air, fmt.Errorf("неизвестный тип блока %q", name)
	}
	return k.ID, nil
}

func encode(kind string, payload any) ([]byte, error) {
	msg := wireMessage{Type: kind}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("сериализация %s: %w", kind, err)
		}
		msg.Data = data
	}
	return json.Marshal(msg)
}

// EncodeCommand сериализует команду в {type, data}
func EncodeCommand(c Command) ([]byte, error) {
	switch m := c.(type) {
	case CalculateMovement:
		return encode(m.Kind(), wireMovement{
			ForwardVector:   m.Forward,
			DirectionVector: m.Direction,
			Position:        m.Position,
			Delta:           m.Delta,
		})
	case AddBlock:
		return encode(m.Kind(), wireBlock{Position: toWirePos(m.Position), Type: typeName(m.Type)})
	case RemoveBlock:
		return encode(m.Kind(), wireBlock{Position: toWirePos(m.Position)})
	case BulkAddBlock:
		blocks := make(map[string]string, len(m.Blocks))
		for p, t := range m.Blocks {
			blocks[p.Key()] = typeName(t)
		}
		return encode(m.Kind(), wireBulk{Blocks: blocks})
	case JumpCharacter, RequestSpawnHeight:
		return encode(m.Kind(), nil)
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnknownMessage, c)
	}
}

// DecodeCommand разбирает команду. Для неизвестного типа возвращает ErrUnknownMessage.
func DecodeCommand(data []byte) (Command, error) {
	var msg wireMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("разбор сообщения: %w", err)
	}

	switch msg.Type {
	case TypeCalculateMovement:
		var w wireMovement
		if err := unmarshalData(msg, &w); err != nil {
			return nil, err
		}
		return CalculateMovement{
			Forward:   mgl64.Vec3(w.ForwardVector),
			Direction: mgl64.Vec3(w.DirectionVector),
			Position:  mgl64.Vec3(w.Position),
			Delta:     w.Delta,
		}, nil
	case TypeJumpCharacter:
		return JumpCharacter{}, nil
	case TypeRequestPosY:
		return RequestSpawnHeight{}, nil
	case TypeAddBlock:
		var w wireBlock
		if err := unmarshalData(msg, &w); err != nil {
			return nil, err
		}
		t, err := parseType(w.Type)
		if err != nil {
			return nil, err
		}
		return AddBlock{Position: fromWirePos(w.Position), Type: t}, nil
	case TypeRemoveBlock:
		var w wireBlock
		if err := unmarshalData(msg, &w); err != nil {
			return nil, err
		}
		return RemoveBlock{Position: fromWirePos(w.Position)}, nil
	case TypeBulkAddBlock:
		var w wireBulk
		if err := unmarshalData(msg, &w); err != nil {
			return nil, err
		}
		blocks := make(map[vec.Vec3]block.Type, len(w.Blocks))
		for key, name := range w.Blocks {
			p, err := vec.ParseKey(key)
			if err != nil {
				return nil, err
			}
			t, err := parseType(name)
			if err != nil {
				return nil, err
			}
			blocks[p] = t
		}
		return BulkAddBlock{Blocks: blocks}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMessage, msg.Type)
	}
}

// EncodeReply сериализует ответ в {type, data}
func EncodeReply(r Reply) ([]byte, error) {
	switch m := r.(type) {
	case UpdatePosition:
		return encode(m.Kind(), wireUpdate{
			Position:      m.Position,
			OnGround:      m.OnGround,
			CollideObject: typeName(m.Collided),
			VelocityY:     m.VelocityY,
		})
	case ChangePosition:
		return encode(m.Kind(), wirePosition{Position: m.Position})
	case GridReady:
		return encode(m.Kind(), nil)
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnknownMessage, r)
	}
}

// DecodeReply разбирает ответ. Для неизвестного типа возвращает ErrUnknownMessage.
func DecodeReply(data []byte) (Reply, error) {
	var msg wireMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("разбор сообщения: %w", err)
	}

	switch msg.Type {
	case TypeUpdatePosition:
		var w wireUpdate
		if err := unmarshalData(msg, &w); err != nil {
			return nil, err
		}
		t, err := parseType(w.CollideObject)
		if err != nil {
			return nil, err
		}
		return UpdatePosition{Position: mgl64.Vec3(w.Position), OnGround: w.OnGround, Collided: t, VelocityY: w.VelocityY}, nil
	case TypeChangePosition:
		var w wirePosition
		if err := unmarshalData(msg, &w); err != nil {
			return nil, err
		}
		return ChangePosition{Position: mgl64.Vec3(w.Position)}, nil
	case TypeGridReady:
		return GridReady{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMessage, msg.Type)
	}
}

func unmarshalData(msg wireMessage, v any) error {
	if len(msg.Data) == 0 {
		return fmt.Errorf("сообщение %s без данных", msg.Type)
	}
	if err := json.Unmarshal(msg.Data, v); err != nil {
		return fmt.Errorf("данные %s: %w", msg.Type, err)
	}
	return nil
}
