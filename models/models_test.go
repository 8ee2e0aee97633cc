package models

import "testing"

func TestRegisterRequestValidate(t *testing.T) {
	ok := RegisterRequest{Email: "  Ann@Example.com ", Password: "x", DisplayName: " Ann ", Role: RoleBroker}
	if err := ok.Validate(); err != nil {
		t.Fatalf("valid request rejected: %v", err)
	}
	if ok.Email != "ann@example.com" || ok.DisplayName != "Ann" {
		t.Fatalf("not normalized: %+v", ok)
	}

	cases := map[string]RegisterRequest{
		"bad email":    {Email: "nope", Password: "x", DisplayName: "A", Role: RoleTenant},
		"display name": {Email: "a@b.co", Password: "x", DisplayName: " ", Role: RoleTenant},
		"role":         {Email: "a@b.co", Password: "x", DisplayName: "A", Role: "admin"},
		"password":     {Email: "a@b.co", DisplayName: "A", Role: RoleTenant},
	}
	for name, req := range cases {
		if err := req.Validate(); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}

func TestSendMessageRequestValidate(t *testing.T) {
	r := SendMessageRequest{Content: "  hello  "}
	if err := r.Validate(); err != nil || r.Content != "hello" {
		t.Fatalf("got %q, %v", r.Content, err)
	}

	blank := SendMessageRequest{Content: " \n\t "}
	if err := blank.Validate(); err == nil {
		t.Fatal("whitespace-only content must be rejected")
	}

	noURL := SendMessageRequest{Content: "see file", Attachments: []Attachment{{Name: "a.pdf"}}}
	if err := noURL.Validate(); err == nil {
		t.Fatal("attachment without url must be rejected")
	}
}

func TestCreateConversationRequestListing(t *testing.T) {
	r := CreateConversationRequest{ParticipantIDs: []string{"b"}, ListingType: ListingTypeProperty}
	if err := r.Validate(); err == nil {
		t.Fatal("listingType without listingId must be rejected")
	}

	r.ListingID = "p1"
	if err := r.Validate(); err != nil {
		t.Fatal(err)
	}
	if l := r.Listing(); l == nil || l.ID != "p1" {
		t.Fatalf("Listing() = %+v", l)
	}

	empty := " "
	r2 := CreateConversationRequest{ParticipantIDs: []string{"b"}, Subject: &empty, InitialMessage: &empty}
	if err := r2.Validate(); err != nil {
		t.Fatal(err)
	}
	if r2.Subject != nil || r2.InitialMessage != nil || r2.Listing() != nil {
		t.Fatalf("blank optionals should become nil: %+v", r2)
	}
}

func TestKPIAccumulation(t *testing.T) {
	var p PropertyKPIs
	p.Add(PropertyActive, 3)
	p.Add(PropertyLeased, 1)
	if p.Total != 4 || p.Active != 3 || p.Leased != 1 {
		t.Fatalf("property kpis = %+v", p)
	}

	var d DealKPIs
	d.Add(DealNegotiation, 2, 1000)
	d.Add(DealProspect, 1, 500)
	d.Add(DealClosedWon, 1, 700)
	d.Add(DealClosedLost, 4, 9000)
	if d.Open != 3 || d.PipelineValue != 1500 || d.Won != 1 || d.WonValue != 700 || d.Lost != 4 {
		t.Fatalf("deal kpis = %+v", d)
	}
}
