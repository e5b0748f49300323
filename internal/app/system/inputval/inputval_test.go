package inputval_test

import (
	"errors"
	"testing"

	"github.com/kolohq/kolo/internal/app/system/inputval"
)

func TestAmount(t *testing.T) {
	if err := inputval.Amount(1); err != nil {
		t.Errorf("Amount(1) = %v, want nil", err)
	}
	if err := inputval.Amount(0); !errors.Is(err, inputval.ErrAmountNotPositive) {
		t.Errorf("Amount(0) = %v, want ErrAmountNotPositive", err)
	}
	if err := inputval.Amount(-100); !errors.Is(err, inputval.ErrAmountNotPositive) {
		t.Errorf("Amount(-100) = %v, want ErrAmountNotPositive", err)
	}
}

func TestTitle(t *testing.T) {
	if err := inputval.Title("Hall repairs"); err != nil {
		t.Errorf("Title = %v, want nil", err)
	}
	if err := inputval.Title("   "); !errors.Is(err, inputval.ErrTitleRequired) {
		t.Errorf("blank title = %v, want ErrTitleRequired", err)
	}
}

func TestPollInput(t *testing.T) {
	opts, err := inputval.PollInput("Venue", "Where should we meet?",
		[]string{" Town hall ", "School field", "", "  "})
	if err != nil {
		t.Fatalf("PollInput failed: %v", err)
	}
	if len(opts) != 2 {
		t.Fatalf("expected 2 trimmed options, got %d", len(opts))
	}
	if opts[0] != "Town hall" {
		t.Errorf("expected trimmed option, got %q", opts[0])
	}
}

func TestPollInput_OptionLimits(t *testing.T) {
	if _, err := inputval.PollInput("T", "D", []string{"only one"}); err == nil {
		t.Error("expected error with one option")
	}
	if _, err := inputval.PollInput("T", "D",
		[]string{"a", "b", "c", "d", "e", "f"}); err == nil {
		t.Error("expected error with six options")
	}
	if _, err := inputval.PollInput("", "D", []string{"a", "b"}); !errors.Is(err, inputval.ErrTitleRequired) {
		t.Errorf("missing title = %v, want ErrTitleRequired", err)
	}
	if _, err := inputval.PollInput("T", "", []string{"a", "b"}); !errors.Is(err, inputval.ErrDescriptionRequired) {
		t.Errorf("missing description = %v, want ErrDescriptionRequired", err)
	}
}
