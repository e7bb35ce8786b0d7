package authsession

import "testing"

func TestLoginRejectsWrongCredentials(t *testing.T) {
	s := New("admin", "secret")
	if _, ok := s.Login("admin", "wrong"); ok {
		t.Fatal("expected login to fail with wrong password")
	}
	if _, ok := s.Login("nobody", "secret"); ok {
		t.Fatal("expected login to fail with wrong username")
	}
}

func TestLoginIssuesValidToken(t *testing.T) {
	s := New("admin", "secret")
	token, ok := s.Login("admin", "secret")
	if !ok || token == "" {
		t.Fatalf("expected successful login with non-empty token, got %q ok=%v", token, ok)
	}
	if !s.Valid(token) {
		t.Fatal("expected freshly minted token to be valid")
	}
}

func TestLogoutInvalidatesToken(t *testing.T) {
	s := New("admin", "secret")
	token, _ := s.Login("admin", "secret")
	s.Logout(token)
	if s.Valid(token) {
		t.Fatal("expected token to be invalid after logout")
	}
}

func TestValidRejectsUnknownToken(t *testing.T) {
	s := New("admin", "secret")
	if s.Valid("not-a-real-token") {
		t.Fatal("expected unknown token to be invalid")
	}
	if s.Valid("") {
		t.Fatal("expected empty token to be invalid")
	}
}

func TestTwoLoginsIssueDistinctTokens(t *testing.T) {
	s := New("admin", "secret")
	t1, _ := s.Login("admin", "secret")
	t2, _ := s.Login("admin", "secret")
	if t1 == t2 {
		t.Fatal("expected distinct tokens across logins")
	}
	if !s.Valid(t1) || !s.Valid(t2) {
		t.Fatal("expected both tokens to remain valid")
	}
}
