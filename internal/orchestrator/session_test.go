package orchestrator

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"token-launchpad/internal/domain"
)

var pngImage = domain.Image{Data: []byte{0x89, 'P', 'N', 'G'}, ContentType: "image/png"}

// walk feeds inputs one by one and returns the last session and reply.
func walk(t *testing.T, s Session, inputs ...string) (Session, Reply) {
	t.Helper()
	var r Reply
	for _, in := range inputs {
		s, r = s.Handle(in)
	}
	return s, r
}

func TestSession_HappyPath(t *testing.T) {
	s, r := walk(t, Session{}, "/create")
	assert.Equal(t, StepName, s.Step)
	assert.Equal(t, PromptName, r.Prompt)

	s, r = walk(t, s, "Agent Meme", "ABCD", "test")
	assert.Equal(t, StepImageAndLiquidity, s.Step)
	assert.Equal(t, PromptLiquidity, r.Prompt)

	s, r = s.AttachImage(pngImage)
	assert.Empty(t, r.Error)

	s, r = s.Handle("0.5")
	assert.Equal(t, StepExecuting, s.Step)
	assert.Equal(t, PromptExecuting, r.Prompt)
	require.NotNil(t, r.Request)

	assert.Equal(t, "Agent Meme", r.Request.Name)
	assert.Equal(t, "ABCD", r.Request.Ticker)
	assert.Equal(t, "test", r.Request.Description)
	require.NotNil(t, r.Request.InitialLiquidity)
	assert.True(t, r.Request.InitialLiquidity.Equal(decimal.RequireFromString("0.5")))
	assert.Equal(t, pngImage.Data, r.Request.Image.Data)
}

func TestSession_SkipLiquidity(t *testing.T) {
	s, _ := walk(t, Session{}, "/create", "Agent Meme", "ABCD", "test")
	s, _ = s.AttachImage(pngImage)

	_, r := s.Handle("")
	require.NotNil(t, r.Request)
	assert.Nil(t, r.Request.InitialLiquidity)
}

func TestSession_InvalidInputRepeatsStep(t *testing.T) {
	tests := []struct {
		name   string
		inputs []string
		step   Step
	}{
		{"name too long", []string{"/create", strings.Repeat("a", 33)}, StepName},
		{"empty name", []string{"/create", ""}, StepName},
		{"ticker too long", []string{"/create", "Agent Meme", "ABCDEFGHIJK"}, StepTicker},
		{"description too long", []string{"/create", "Agent Meme", "ABCD", strings.Repeat("d", 101)}, StepDescription},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, r := walk(t, Session{}, tt.inputs...)
			assert.Equal(t, tt.step, s.Step)
			assert.True(t, strings.HasPrefix(r.Error, "Error: "), "got %q", r.Error)
			assert.Equal(t, s.Prompt(), r.Prompt)
			assert.Nil(t, r.Request)
		})
	}
}

func TestSession_KeepsEarlierFieldsOnError(t *testing.T) {
	s, _ := walk(t, Session{}, "/create", "Agent Meme", "ABCDEFGHIJK")
	assert.Equal(t, "Agent Meme", s.Draft.Name)
	assert.Empty(t, s.Draft.Ticker)

	s, _ = s.Handle("ABCD")
	assert.Equal(t, StepDescription, s.Step)
	assert.Equal(t, "ABCD", s.Draft.Ticker)
}

func TestSession_LiquidityOutOfRange(t *testing.T) {
	s, _ := walk(t, Session{}, "/create", "Agent Meme", "ABCD", "test")
	s, _ = s.AttachImage(pngImage)

	for _, in := range []string{"0.05", "5.01", "lots"} {
		next, r := s.Handle(in)
		assert.Equal(t, StepImageAndLiquidity, next.Step, in)
		assert.NotEmpty(t, r.Error, in)
		assert.Nil(t, r.Request, in)
	}

	for _, in := range []string{"0.1", "5"} {
		next, r := s.Handle(in)
		assert.Equal(t, StepExecuting, next.Step, in)
		assert.NotNil(t, r.Request, in)
	}
}

func TestSession_ImageRequiredBeforeLiquidity(t *testing.T) {
	s, _ := walk(t, Session{}, "/create", "Agent Meme", "ABCD", "test")

	s, r := s.Handle("0.5")
	assert.Equal(t, StepImageAndLiquidity, s.Step)
	assert.Contains(t, r.Error, "image")
}

func TestSession_AttachImage(t *testing.T) {
	t.Run("wrong step", func(t *testing.T) {
		s, r := Session{Step: StepName}.AttachImage(pngImage)
		assert.NotEmpty(t, r.Error)
		assert.Empty(t, s.Draft.Image.Data)
	})

	t.Run("not an image", func(t *testing.T) {
		s := Session{Step: StepImageAndLiquidity}
		s, r := s.AttachImage(domain.Image{Data: []byte("%PDF"), ContentType: "application/pdf"})
		assert.NotEmpty(t, r.Error)
		assert.Empty(t, s.Draft.Image.Data)
	})

	t.Run("copies data", func(t *testing.T) {
		data := []byte{1, 2, 3}
		s, _ := Session{Step: StepImageAndLiquidity}.AttachImage(domain.Image{Data: data, ContentType: "image/gif"})
		data[0] = 9
		assert.Equal(t, byte(1), s.Draft.Image.Data[0])
	})
}

func TestSession_LinksSurviveCreate(t *testing.T) {
	links := domain.Links{X: "https://x.com/agm", Telegram: "https://t.me/agm"}
	s := Session{}.SetLinks(links)

	s, _ = walk(t, s, "/create", "Agent Meme", "ABCD", "")
	s, _ = s.AttachImage(pngImage)
	_, r := s.Handle("")
	require.NotNil(t, r.Request)
	assert.Equal(t, links, r.Request.Links)

	s, _ = walk(t, Session{}.SetLinks(links), "/reset", "/create")
	assert.Equal(t, domain.Links{}, s.Draft.Links, "reset clears links")
}

func TestSession_Reset(t *testing.T) {
	for _, step := range []Step{StepName, StepTicker, StepDescription, StepImageAndLiquidity} {
		s := Session{Step: step, Draft: domain.LaunchRequest{Name: "Agent Meme"}}
		next, r := s.Handle("/reset")
		assert.Equal(t, Session{}, next)
		assert.Equal(t, PromptIdle, r.Prompt)
	}
}

func TestSession_IdleIgnoresText(t *testing.T) {
	s, r := Session{}.Handle("hello")
	assert.Equal(t, StepIdle, s.Step)
	assert.Equal(t, PromptIdle, r.Prompt)
	assert.Empty(t, r.Error)
}

func TestSession_ExecutingRejectsInput(t *testing.T) {
	s := Session{Step: StepExecuting}

	next, r := s.Handle("/reset")
	assert.Equal(t, StepExecuting, next.Step)
	assert.NotEmpty(t, r.Error)

	assert.Equal(t, Session{}, next.Complete())
}

func TestSession_IsValue(t *testing.T) {
	s, _ := walk(t, Session{}, "/create", "Agent Meme")
	before := s

	_, _ = s.Handle("ABCD")
	assert.Equal(t, before, s)
}
