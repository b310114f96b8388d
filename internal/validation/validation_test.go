package validation

import "testing"

type signupForm struct {
	Name     string `validate:"required"`
	Email    string `validate:"required,email"`
	Password string `validate:"required,min=8"`
}

func TestStruct_Valid(t *testing.T) {
	form := signupForm{Name: "Ana", Email: "ana@clinic.local", Password: "longenough"}
	if fields := Struct(form); fields != nil {
		t.Fatalf("expected nil for valid struct, got %v", fields)
	}
}

func TestStruct_CollectsFieldMessages(t *testing.T) {
	form := signupForm{Email: "not-an-email", Password: "short"}
	fields := Struct(form)
	if fields == nil {
		t.Fatal("expected validation errors")
	}

	if msgs := fields["name"]; len(msgs) != 1 || msgs[0] != "is required" {
		t.Errorf("name: expected [is required], got %v", msgs)
	}
	if msgs := fields["email"]; len(msgs) != 1 || msgs[0] != "must be a valid email address" {
		t.Errorf("email: expected email message, got %v", msgs)
	}
	if len(fields["password"]) != 1 {
		t.Errorf("password: expected one message, got %v", fields["password"])
	}
}

type nestedForm struct {
	Items []itemForm `validate:"required,min=1,dive"`
}

type itemForm struct {
	Quantity int `validate:"gt=0"`
}

func TestStruct_NestedFieldPath(t *testing.T) {
	form := nestedForm{Items: []itemForm{{Quantity: 1}, {Quantity: 0}}}
	fields := Struct(form)
	if fields == nil {
		t.Fatal("expected validation errors")
	}
	if msgs := fields["items[1].quantity"]; len(msgs) != 1 {
		t.Errorf("expected error keyed by nested path, got %v", fields)
	}
}
