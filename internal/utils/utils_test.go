package utils

import (
	"reflect"
	"testing"
	"time"
)

func TestFormatMultiline(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"one line", "one line"},
		{"a\nb", "a<br>b"},
		{"a\r\nb\rc", "a<br>b<br>c"},
		{"<script>\n", "&lt;script&gt;<br>"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := FormatMultiline(tt.in); got != tt.want {
			t.Errorf("FormatMultiline(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestParseKeywords(t *testing.T) {
	got := ParseKeywords([]string{"go, web ,", " forum", ""})
	want := []string{"go", "web", "forum"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("ParseKeywords = %q, want %q", got, want)
	}
	if got := ParseKeywords(nil); got == nil || len(got) != 0 {
		t.Fatalf("ParseKeywords(nil) = %#v, want empty slice", got)
	}
}

func TestAdminToken(t *testing.T) {
	secret := []byte("test-secret")
	tok, err := IssueAdminToken(secret, "ops", time.Minute)
	if err != nil {
		t.Fatalf("IssueAdminToken: %v", err)
	}
	claims, err := ParseAdminToken(secret, tok)
	if err != nil {
		t.Fatalf("ParseAdminToken: %v", err)
	}
	if claims.Subject != "ops" || claims.Role != RoleAdmin {
		t.Fatalf("claims = %+v", claims)
	}

	if _, err := ParseAdminToken([]byte("other"), tok); err == nil {
		t.Fatalf("token accepted with wrong secret")
	}
	expired, _ := IssueAdminToken(secret, "ops", -time.Minute)
	if _, err := ParseAdminToken(secret, expired); err == nil {
		t.Fatalf("expired token accepted")
	}
}
