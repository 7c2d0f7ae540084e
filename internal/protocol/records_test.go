package protocol

import "testing"

func TestTalkRoundTrip(t *testing.T) {
	want := Talk{
		Timestamp: 12345,
		ChatType:  3,
		Mesh:      0,
		Strings:   []string{"SYSTEM", "ALLUSERS", "", "ANSWER_OK", "", "0"},
	}

	got, err := UnmarshalTalk(want.Marshal())
	if err != nil {
		t.Fatalf("UnmarshalTalk: %v", err)
	}
	if got.Timestamp != want.Timestamp || got.ChatType != want.ChatType || got.Mesh != want.Mesh {
		t.Fatalf("scalar fields mismatch: got %+v want %+v", got, want)
	}
	if len(got.Strings) != len(want.Strings) {
		t.Fatalf("strings length = %d, want %d", len(got.Strings), len(want.Strings))
	}
	for i := range want.Strings {
		if got.Strings[i] != want.Strings[i] {
			t.Fatalf("strings[%d] = %q, want %q", i, got.Strings[i], want.Strings[i])
		}
	}
}

func TestTalkRejectsTooFewStrings(t *testing.T) {
	talk := Talk{Strings: []string{"a", "b"}}
	if _, err := UnmarshalTalk(talk.Marshal()); err == nil {
		t.Fatal("expected error for fewer than 4 strings")
	}
}

func TestActionRoundTrip(t *testing.T) {
	want := Action{
		UID:       1,
		Type:      ActionJump,
		DwParamLo: 300,
		DwParamHi: 302,
	}

	got, err := UnmarshalAction(want.Marshal())
	if err != nil {
		t.Fatalf("UnmarshalAction: %v", err)
	}
	if got != want {
		t.Fatalf("Action round-trip mismatch: got %+v want %+v", got, want)
	}
}

func TestHeroInfoRoundTrip(t *testing.T) {
	want := HeroInfo{
		ID:    1,
		Name:  "tester",
		Level: 10,
		MapID: 1002,
		X:     100,
		Y:     200,
		HP:    50,
		MaxHP: 100,
	}

	got, err := UnmarshalHeroInfo(want.Marshal())
	if err != nil {
		t.Fatalf("UnmarshalHeroInfo: %v", err)
	}
	if got != want {
		t.Fatalf("HeroInfo round-trip mismatch: got %+v want %+v", got, want)
	}
}
