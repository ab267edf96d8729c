package orchestrator

import (
	"fmt"
	"strings"

	"token-launchpad/internal/domain"
	"token-launchpad/internal/launch"
)

// Step is a position in the interactive create flow.
type Step int

const (
	StepIdle Step = iota
	StepName
	StepTicker
	StepDescription
	StepImageAndLiquidity
	StepExecuting
)

// Commands understood by the interactive flow.
const (
	CommandCreate = "/create"
	CommandReset  = "/reset"
)

// Prompts shown at each step.
const (
	PromptIdle        = "Type /create to launch a token."
	PromptName        = "Enter token name (max 32 characters):"
	PromptTicker      = "Enter token ticker/symbol (max 10 characters):"
	PromptDescription = "Enter description (max 100 characters):"
	PromptLiquidity   = "Upload token image below. Then enter initial buy amount (0.1-5 SOL) or press Enter to skip:"
	PromptExecuting   = "Creating your token..."
)

// Reply is the outcome of one transition.
type Reply struct {
	Prompt string
	Error  string // non-empty when the input was rejected and the step repeats

	// Request is set exactly when the flow reaches StepExecuting.
	Request *domain.LaunchRequest
}

// Session is the interactive create flow as a value. Every transition
// returns a new Session and never performs I/O.
type Session struct {
	Step  Step
	Draft domain.LaunchRequest
}

// Prompt returns the prompt of the current step.
func (s Session) Prompt() string {
	switch s.Step {
	case StepName:
		return PromptName
	case StepTicker:
		return PromptTicker
	case StepDescription:
		return PromptDescription
	case StepImageAndLiquidity:
		return PromptLiquidity
	case StepExecuting:
		return PromptExecuting
	default:
		return PromptIdle
	}
}

// Handle applies one line of user input.
func (s Session) Handle(input string) (Session, Reply) {
	input = strings.TrimSpace(input)

	if s.Step == StepExecuting {
		return s, Reply{Prompt: PromptExecuting, Error: "a launch is already in progress"}
	}
	if input == CommandReset {
		return Session{}, Reply{Prompt: PromptIdle}
	}

	switch s.Step {
	case StepIdle:
		if input != CommandCreate {
			return s, Reply{Prompt: PromptIdle}
		}
		// Links may be set before the flow starts.
		next := Session{Step: StepName, Draft: domain.LaunchRequest{Links: s.Draft.Links}}
		return next, Reply{Prompt: next.Prompt()}

	case StepName:
		if err := launch.ValidateName(input); err != nil {
			return s.reject(err)
		}
		s.Draft.Name = input
		return s.advance(StepTicker)

	case StepTicker:
		if err := launch.ValidateTicker(input); err != nil {
			return s.reject(err)
		}
		s.Draft.Ticker = input
		return s.advance(StepDescription)

	case StepDescription:
		if err := launch.ValidateDescription(input); err != nil {
			return s.reject(err)
		}
		s.Draft.Description = input
		return s.advance(StepImageAndLiquidity)

	case StepImageAndLiquidity:
		if len(s.Draft.Image.Data) == 0 {
			return s.reject(fmt.Errorf("%w: attach the token image first", launch.ErrValidation))
		}
		amount, err := launch.ParseLiquidity(input)
		if err != nil {
			return s.reject(err)
		}
		s.Draft.InitialLiquidity = amount

		next, reply := s.advance(StepExecuting)
		req := next.Draft
		reply.Request = &req
		return next, reply
	}

	return Session{}, Reply{Prompt: PromptIdle}
}

// AttachImage sets the token image. Only accepted at the image step.
func (s Session) AttachImage(img domain.Image) (Session, Reply) {
	if s.Step != StepImageAndLiquidity {
		return s, Reply{Prompt: s.Prompt(), Error: "no image expected at this step"}
	}
	if err := launch.ValidateImage(img); err != nil {
		return s.reject(err)
	}
	s.Draft.Image = domain.Image{Data: append([]byte(nil), img.Data...), ContentType: img.ContentType}
	return s, Reply{Prompt: s.Prompt()}
}

// SetLinks sets the optional social links on the draft.
func (s Session) SetLinks(links domain.Links) Session {
	s.Draft.Links = links
	return s
}

// Complete ends an executed launch and returns to idle.
func (s Session) Complete() Session {
	return Session{}
}

func (s Session) advance(step Step) (Session, Reply) {
	s.Step = step
	return s, Reply{Prompt: s.Prompt()}
}

func (s Session) reject(err error) (Session, Reply) {
	msg := strings.TrimPrefix(err.Error(), launch.ErrValidation.Error()+": ")
	return s, Reply{Prompt: s.Prompt(), Error: "Error: " + msg}
}
