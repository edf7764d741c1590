package notify

import (
	"context"
	"net/http"
	"testing"

	"github.com/h2non/gock"
)

func newProwlTestClient() *http.Client {
	client := &http.Client{}
	gock.InterceptClient(client)
	return client
}

func TestProwlVerify(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		wantErr bool
	}{
		{name: "valid key", status: 200},
		{name: "invalid key", status: 401, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defer gock.Off()
			gock.New("https://api.prowlapp.com").
				Get("/publicapi/verify").
				MatchParam("apikey", "test-key").
				Reply(tt.status)

			p := NewProwl(newProwlTestClient(), "test-key")
			err := p.Verify(context.Background())
			if tt.wantErr && err == nil {
				t.Fatal("expected error, got nil")
			}
			if !tt.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !gock.IsDone() {
				t.Error("expected verify request was not made")
			}
		})
	}
}

func TestProwlNotify(t *testing.T) {
	defer gock.Off()
	gock.New("https://api.prowlapp.com").
		Post("/publicapi/add").
		MatchHeader("Content-Type", "application/x-www-form-urlencoded").
		BodyString("application=subwatch").
		Reply(200)

	p := NewProwl(newProwlTestClient(), "test-key")
	err := p.Notify(context.Background(), Notification{
		Title:   "Hit",
		Message: "/u/alice: (abc) Recall",
		URL:     "https://example.com",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !gock.IsDone() {
		t.Error("expected add request was not made")
	}
}

func TestProwlNotifyServerError(t *testing.T) {
	defer gock.Off()
	gock.New("https://api.prowlapp.com").
		Post("/publicapi/add").
		Reply(500)

	p := NewProwl(newProwlTestClient(), "test-key")
	err := p.Notify(context.Background(), Notification{Title: "Hit", Message: "m"})
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}
