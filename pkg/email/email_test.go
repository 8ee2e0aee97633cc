package email

import "testing"

func TestSubject(t *testing.T) {
	n := MessageNotification{SenderName: "Dana"}
	if got := Subject(n); got != "New message from Dana" {
		t.Fatalf("Subject = %q", got)
	}

	n.Subject = "Suite 400 viewing"
	if got := Subject(n); got != "New message from Dana: Suite 400 viewing" {
		t.Fatalf("Subject = %q", got)
	}
}

func TestConversationLink(t *testing.T) {
	if got := ConversationLink("https://app.example.com", "c1"); got != "https://app.example.com/messages/c1" {
		t.Fatalf("ConversationLink = %q", got)
	}
}
