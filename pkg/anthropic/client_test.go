package anthropic

import (
	"context"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockClient implements Client for testing.
type MockClient struct {
	mock.Mock
}

func (m *MockClient) CreateMessage(ctx context.Context, req MessageRequest) (*MessageResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*MessageResponse), args.Error(1)
}

func TestCreateMessage_MockClient(t *testing.T) {
	mc := new(MockClient)
	ctx := context.Background()

	req := MessageRequest{
		Model:     "claude-haiku-4-5-20251001",
		MaxTokens: 150,
		Messages: []Message{
			{Role: "user", Content: "classify this"},
		},
	}

	expected := &MessageResponse{
		ID:         "msg_123",
		Model:      "claude-haiku-4-5-20251001",
		Content:    []ContentBlock{{Type: "text", Text: `{"label":"A1"}`}},
		StopReason: "end_turn",
		Usage: TokenUsage{
			InputTokens:  10,
			OutputTokens: 5,
		},
	}

	mc.On("CreateMessage", ctx, req).Return(expected, nil)

	resp, err := mc.CreateMessage(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, "msg_123", resp.ID)
	assert.Equal(t, `{"label":"A1"}`, resp.FirstText())
	assert.Equal(t, int64(10), resp.Usage.InputTokens)

	mc.AssertExpectations(t)
}

func TestFirstText_Empty(t *testing.T) {
	resp := &MessageResponse{}
	assert.Equal(t, "", resp.FirstText())
}

func TestTokenUsage_Add(t *testing.T) {
	u := TokenUsage{InputTokens: 10, OutputTokens: 5}
	u.Add(TokenUsage{InputTokens: 3, OutputTokens: 2})
	assert.Equal(t, int64(13), u.InputTokens)
	assert.Equal(t, int64(7), u.OutputTokens)
}

func TestIsContentFiltered(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"transport error", eris.New("connection reset by peer"), false},
		{"content filter code", eris.New("api error 400: content_filter"), true},
		{"filtering policy", eris.New("Output blocked by content filtering policy"), true},
		{"management policy", eris.New("request declined by content management policy"), true},
		{"usage policy", eris.New("this request violates our usage policy"), true},
		{"case insensitive", eris.New("CONTENT FILTERING POLICY"), true},
		{"rate limit", eris.New("429 too many requests"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsContentFiltered(tt.err))
		})
	}
}

func TestIsRefusalResponse(t *testing.T) {
	assert.False(t, IsRefusalResponse(nil))
	assert.False(t, IsRefusalResponse(&MessageResponse{StopReason: "end_turn"}))
	assert.True(t, IsRefusalResponse(&MessageResponse{StopReason: "refusal"}))
}
