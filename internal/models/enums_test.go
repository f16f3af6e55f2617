package models

import "testing"

func TestParseRole(t *testing.T) {
	tests := map[string]Role{
		"admin":     RoleAdmin,
		" Manager ": RoleManager,
		"member":    RoleMember,
		"":          RoleMember,
		"superuser": RoleMember,
	}
	for in, want := range tests {
		if got := ParseRole(in); got != want {
			t.Errorf("ParseRole(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestParseUserStatus(t *testing.T) {
	if got := ParseUserStatus("inactive"); got != UserInactive {
		t.Errorf("got %q, want Inactive", got)
	}
	for _, in := range []string{"Active", "", "retired"} {
		if got := ParseUserStatus(in); got != UserActive {
			t.Errorf("ParseUserStatus(%q) = %q, want Active", in, got)
		}
	}
}

func TestInitialStatus(t *testing.T) {
	if InitialStatus(RoleAdmin) != UserActive {
		t.Error("admins start active")
	}
	if InitialStatus(RoleManager) != UserInactive || InitialStatus(RoleMember) != UserInactive {
		t.Error("managers and members start inactive")
	}
}

func TestParseProjectStatus(t *testing.T) {
	got, err := ParseProjectStatus("completed")
	if err != nil || got != ProjectCompleted {
		t.Errorf("got (%q, %v), want Completed", got, err)
	}
	got, err = ParseProjectStatus("at risk")
	if err != nil || got != ProjectAtRisk {
		t.Errorf("got (%q, %v), want At Risk", got, err)
	}
	if _, err := ParseProjectStatus("Archived"); err == nil {
		t.Error("unknown status must be rejected")
	}
}

func TestParseTaskStatus(t *testing.T) {
	tests := []struct {
		in      string
		want    TaskStatus
		wantErr bool
	}{
		{"", TaskPending, false},
		{"Todo", TaskPending, false},
		{"pending", TaskPending, false},
		{"In Progress", TaskInProgress, false},
		{"COMPLETED", TaskCompleted, false},
		{"Blocked", "", true},
	}
	for _, tt := range tests {
		got, err := ParseTaskStatus(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseTaskStatus(%q) = (%q, %v)", tt.in, got, err)
		}
	}
}

func TestTaskStatus_Wire(t *testing.T) {
	if TaskPending.Wire() != "Todo" {
		t.Errorf("Pending should be shown as Todo, got %q", TaskPending.Wire())
	}
	if TaskCompleted.Wire() != "Completed" {
		t.Errorf("got %q", TaskCompleted.Wire())
	}
}

func TestParsePriority(t *testing.T) {
	if ParsePriority("high") != PriorityHigh || ParsePriority("Low") != PriorityLow {
		t.Error("known priorities must parse")
	}
	if ParsePriority("urgent") != PriorityMedium || ParsePriority("") != PriorityMedium {
		t.Error("unknown priority defaults to Medium")
	}
}

func TestResources(t *testing.T) {
	got := SplitResources(" Figma, ,Jira,  ")
	if len(got) != 2 || got[0] != "Figma" || got[1] != "Jira" {
		t.Errorf("SplitResources = %v", got)
	}
	if s := SplitResources(""); s == nil || len(s) != 0 {
		t.Errorf("empty input should give empty non-nil slice, got %#v", s)
	}
	if j := JoinResources([]string{" a", "", "b "}); j != "a,b" {
		t.Errorf("JoinResources = %q", j)
	}
}

func TestLevelForStatus(t *testing.T) {
	tests := map[int]LogLevel{
		200: LogInfo,
		201: LogInfo,
		302: LogInfo,
		400: LogWarning,
		429: LogWarning,
		500: LogError,
		503: LogError,
	}
	for status, want := range tests {
		if got := LevelForStatus(status); got != want {
			t.Errorf("LevelForStatus(%d) = %q, want %q", status, got, want)
		}
	}
}
