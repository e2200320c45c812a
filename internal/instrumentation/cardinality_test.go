package instrumentation

import (
	"strings"
	"testing"
)

func TestSenderLabel(t *testing.T) {
	tests := []struct {
		name     string
		senderID string
	}{
		{"plain id", "conv-42"},
		{"email-like id", "jane@example.com"},
		{"phone-like id", "+4915112345678"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := SenderLabel(tt.senderID)
			if !strings.HasPrefix(result, "sender:") {
				t.Errorf("SenderLabel(%q) = %q, want prefix %q", tt.senderID, result, "sender:")
			}
			if strings.Contains(result, tt.senderID) {
				t.Errorf("SenderLabel(%q) = %q must not contain the raw sender ID", tt.senderID, result)
			}
		})
	}
}

func TestSenderLabel_Empty(t *testing.T) {
	if result := SenderLabel(""); result != "unknown" {
		t.Errorf("SenderLabel(%q) = %q, want %q", "", result, "unknown")
	}
}

func TestSenderLabel_Stable(t *testing.T) {
	first := SenderLabel("conv-42")
	second := SenderLabel("conv-42")
	if first != second {
		t.Errorf("SenderLabel is not stable: %q != %q", first, second)
	}

	other := SenderLabel("conv-43")
	if first == other {
		t.Errorf("SenderLabel collision for distinct senders: %q", first)
	}
}

func TestOperationConstants(t *testing.T) {
	operations := map[string]string{
		OperationList:   "list",
		OperationInsert: "insert",
	}

	for constant, expected := range operations {
		if constant != expected {
			t.Errorf("Operation constant = %q, want %q", constant, expected)
		}
	}
}
