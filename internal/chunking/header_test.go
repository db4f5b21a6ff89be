package chunking

import "testing"

func TestHeaderTrackerOpensOnTableHeader(t *testing.T) {
	tr := NewHeaderTracker()
	tr.Update("| Name | Age |\n| --- | --- |\n")
	if got := tr.Headers(); got == "" {
		t.Fatal("Headers() is empty after a table header fragment, want the header to be active")
	}
}

func TestHeaderTrackerClosesOnNonTableLine(t *testing.T) {
	tr := NewHeaderTracker()
	tr.Update("| Name | Age |\n| --- | --- |\n")
	if tr.Headers() == "" {
		t.Fatal("precondition failed: header should be active before the closing fragment")
	}

	tr.Update("some unrelated paragraph text\n")
	if got := tr.Headers(); got != "" {
		t.Errorf("Headers() = %q after a non-table fragment, want empty", got)
	}
}

// ended is cleared only once active becomes fully empty — with a single
// default hook this collapses to: closing the one active hook immediately
// clears ended, so it can reopen on the very next matching fragment.
func TestHeaderTrackerReopensAfterScopeClears(t *testing.T) {
	tr := NewHeaderTracker()
	tr.Update("| A | B |\n| --- | --- |\n")
	tr.Update("body text closes it\n")
	if tr.Headers() != "" {
		t.Fatal("header should have closed")
	}

	tr.Update("| C | D |\n| --- | --- |\n")
	if got := tr.Headers(); got == "" {
		t.Error("header should be able to reopen once the prior scope fully cleared")
	}
}

func TestHeaderTrackerPlainTextNeverActivates(t *testing.T) {
	tr := NewHeaderTracker()
	for _, frag := range []string{"just some prose", "more prose\n", "and a little more"} {
		tr.Update(frag)
		if got := tr.Headers(); got != "" {
			t.Errorf("Headers() = %q after fragment %q, want empty for non-table text", got, frag)
		}
	}
}
