package vault

import (
	"testing"

	"gitlab.com/elixxir/ekv"
	"go.uber.org/zap"

	"github.com/huddleapp/huddle/internal/store"
)

func testVault(t *testing.T) *Vault {
	t.Helper()
	return NewWithKV(ekv.MakeMemstore(), zap.NewNop())
}

func TestGetAbsent(t *testing.T) {
	v := testVault(t)
	if _, ok := v.Get(KeyTokens); ok {
		t.Error("Get on empty vault returned ok")
	}
}

func TestSetGetDelete(t *testing.T) {
	v := testVault(t)

	v.Set(KeyCredentials, []byte(`{"username":"alice","password":"pw"}`))
	data, ok := v.Get(KeyCredentials)
	if !ok || string(data) == "" {
		t.Fatal("stored value not readable")
	}

	v.Delete(KeyCredentials)
	if _, ok := v.Get(KeyCredentials); ok {
		t.Error("value readable after delete")
	}
}

func TestCredentialsRoundTrip(t *testing.T) {
	v := testVault(t)

	if _, ok := v.Credentials(); ok {
		t.Fatal("credentials present on empty vault")
	}

	v.SetCredentials(&store.Credentials{Username: "alice", Password: "hunter2"})
	creds, ok := v.Credentials()
	if !ok {
		t.Fatal("credentials not found after set")
	}
	if creds.Username != "alice" || creds.Password != "hunter2" {
		t.Errorf("got %+v", creds)
	}
}

func TestTokensRoundTrip(t *testing.T) {
	v := testVault(t)

	v.SetTokens(&store.TokenPair{Access: "acc", Refresh: "ref"})
	tokens, ok := v.Tokens()
	if !ok {
		t.Fatal("tokens not found after set")
	}
	if tokens.Access != "acc" || tokens.Refresh != "ref" {
		t.Errorf("got %+v", tokens)
	}
}

func TestCorruptValueTreatedAsAbsent(t *testing.T) {
	v := testVault(t)
	v.Set(KeyTokens, []byte("{not json"))
	if _, ok := v.Tokens(); ok {
		t.Error("corrupt tokens parsed as present")
	}
}
