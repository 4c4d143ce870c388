package deps

import "testing"

func TestCheckBinariesMissing(t *testing.T) {
	statuses := CheckBinaries([]Requirement{
		{Name: "Nope", Command: "definitely-not-a-real-binary-12345"},
		{Name: "Blank", Command: ""},
	})
	if len(statuses) != 2 {
		t.Fatalf("len = %d", len(statuses))
	}
	if statuses[0].Available {
		t.Error("missing binary reported available")
	}
	if statuses[1].Available || statuses[1].Detail != "command not configured" {
		t.Errorf("blank command status = %+v", statuses[1])
	}
}

func TestCheckBinariesFindsShell(t *testing.T) {
	statuses := CheckBinaries([]Requirement{{Name: "sh", Command: "sh"}})
	if !statuses[0].Available {
		t.Skip("sh not on PATH")
	}
}
