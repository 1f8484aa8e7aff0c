// Package prompt asks the operator for missing CLI settings through survey.
package prompt

import (
	"context"
	"errors"
	"os"
	"strings"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"
	"golang.org/x/term"
)

// ErrAborted is returned when the operator interrupts a prompt.
var ErrAborted = errors.New("prompt: aborted")

// InputConfig configures a single-line prompt.
type InputConfig struct {
	Message   string
	Default   string
	Help      string
	Validator func(string) error
}

// Driver abstracts the terminal so credential flows can be tested without
// one.
type Driver interface {
	Input(ctx context.Context, cfg InputConfig) (string, error)
	Password(ctx context.Context, cfg InputConfig) (string, error)
}

// Interactive reports whether stdin is attached to a terminal.
func Interactive() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// NewSurveyDriver returns the survey-backed Driver.
func NewSurveyDriver() Driver {
	return surveyDriver{}
}

type surveyDriver struct{}

func (surveyDriver) Input(ctx context.Context, cfg InputConfig) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	var out string
	prompt := &survey.Input{
		Message: cfg.Message,
		Help:    cfg.Help,
		Default: cfg.Default,
	}
	if err := survey.AskOne(prompt, &out, askOpts(cfg)...); err != nil {
		return "", translateSurveyErr(err)
	}
	return out, nil
}

func (surveyDriver) Password(ctx context.Context, cfg InputConfig) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	var out string
	prompt := &survey.Password{
		Message: cfg.Message,
		Help:    cfg.Help,
	}
	if err := survey.AskOne(prompt, &out, askOpts(cfg)...); err != nil {
		return "", translateSurveyErr(err)
	}
	return out, nil
}

func askOpts(cfg InputConfig) []survey.AskOpt {
	if cfg.Validator == nil {
		return nil
	}
	validate := cfg.Validator
	return []survey.AskOpt{survey.WithValidator(func(ans any) error {
		value, _ := ans.(string)
		return validate(value)
	})}
}

func translateSurveyErr(err error) error {
	if errors.Is(err, terminal.InterruptErr) {
		return ErrAborted
	}
	return err
}

// Required rejects blank answers.
func Required(value string) error {
	if strings.TrimSpace(value) == "" {
		return errors.New("a value is required")
	}
	return nil
}

// Credentials fills in whichever of appID and apiKey is blank. The API key is
// read without echo.
func Credentials(ctx context.Context, driver Driver, appID, apiKey string) (string, string, error) {
	var err error
	if strings.TrimSpace(appID) == "" {
		appID, err = driver.Input(ctx, InputConfig{
			Message:   "Knack application id:",
			Help:      "Found under Settings > API & Code in the Knack builder.",
			Validator: Required,
		})
		if err != nil {
			return "", "", err
		}
	}
	if strings.TrimSpace(apiKey) == "" {
		apiKey, err = driver.Password(ctx, InputConfig{
			Message:   "Knack REST API key:",
			Validator: Required,
		})
		if err != nil {
			return "", "", err
		}
	}
	return strings.TrimSpace(appID), strings.TrimSpace(apiKey), nil
}
