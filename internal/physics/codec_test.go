package physics

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vuongle2609/Minecraft/internal/vec"
	"github.com/vuongle2609/Minecraft/internal/world/block"
)

func TestCodec_WireShape(t *testing.T) {
	data, err := EncodeCommand(AddBlock{Position: vec.Vec3{X: 2, Y: 0, Z: -4}, Type: block.OakLog})
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"addBlock","data":{"position":[2,0,-4],"type":"oak_log"}}`, string(data))

	data, err = EncodeCommand(JumpCharacter{})
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"jumpCharacter"}`, string(data))

	data, err = EncodeReply(UpdatePosition{Position: mgl64.Vec3{1, 2.5, 3}, OnGround: true, Collided: block.Grass, VelocityY: -25})
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"updatePosition","data":{"position":[1,2.5,3],"onGround":true,"collideObject":"grass","vy":-25}}`, string(data))
}

func TestCodec_CommandsSurviveTheBoundary(t *testing.T) {
	commands := []Command{
		CalculateMovement{Forward: mgl64.Vec3{0, 0, 1}, Direction: mgl64.Vec3{1, 0, 0}, Position: mgl64.Vec3{8, 5, 8}, Delta: 0.016},
		JumpCharacter{},
		RemoveBlock{Position: vec.Vec3{X: -2, Y: 4, Z: 6}},
		BulkAddBlock{Blocks: map[vec.Vec3]block.Type{{X: 0}: block.Grass, {X: 2}: block.Sand}},
		RequestSpawnHeight{},
	}
	for _, cmd := range commands {
		data, err := EncodeCommand(cmd)
		require.NoError(t, err, cmd.Kind())
		back, err := DecodeCommand(data)
		require.NoError(t, err, cmd.Kind())
		assert.Equal(t, cmd, back, cmd.Kind())
	}
}

func TestCodec_Replies(t *testing.T) {
	for _, rep := range []Reply{ChangePosition{Position: mgl64.Vec3{8, 3, 8}}, GridReady{}, UpdatePosition{}} {
		data, err := EncodeReply(rep)
		require.NoError(t, err)
		back, err := DecodeReply(data)
		require.NoError(t, err)
		assert.Equal(t, rep, back)
	}
}

func TestCodec_UnknownType(t *testing.T) {
	_, err := DecodeCommand([]byte(`{"type":"fly","data":{}}`))
	assert.ErrorIs(t, err, ErrUnknownMessage)
	_, err = DecodeReply([]byte(`{"type":"explode"}`))
	assert.ErrorIs(t, err, ErrUnknownMessage)
	_, err = DecodeCommand([]byte(`{"type":"addBlock","data":{"position":[0,0,0],"type":"lava"}}`))
	assert.Error(t, err)
}
