package audit

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestStoreSave(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()

	store := NewStoreWithDB(db)

	event := CheckEvent{
		Principal: "42",
		Ability:   "publish",
		Allowed:   true,
	}

	mock.ExpectExec(`INSERT INTO messages`).
		WithArgs(
			FacilityAuthPriv,  // facility
			int(SeverityInfo), // severity
			sqlmock.AnyArg(),  // timestamp
			sqlmock.AnyArg(),  // hostname
			"bouncer",         // appname
			sqlmock.AnyArg(),  // procid
			"check",           // msgid
			sqlmock.AnyArg(),  // sdata (JSON)
			sqlmock.AnyArg(),  // message
		).
		WillReturnResult(sqlmock.NewResult(1, 1))

	if err := store.Save(context.Background(), event); err != nil {
		t.Errorf("Save() error = %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestStoreSaveFailedMutation(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()

	store := NewStoreWithDB(db)

	event := PermissionEvent{
		Actor:        "admin",
		Operation:    "allow",
		Entity:       "everyone",
		Ability:      "missing",
		ErrorMessage: "not found",
	}

	mock.ExpectExec(`INSERT INTO messages`).
		WithArgs(
			FacilityAuthPriv,
			int(SeverityWarning), // failed mutations have warning severity
			sqlmock.AnyArg(),
			sqlmock.AnyArg(),
			"bouncer",
			sqlmock.AnyArg(),
			"permission",
			sqlmock.AnyArg(),
			sqlmock.AnyArg(),
		).
		WillReturnResult(sqlmock.NewResult(1, 1))

	if err := store.Save(context.Background(), event); err != nil {
		t.Errorf("Save() error = %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestRecorderPersists(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()

	rec := NewRecorder(nil, NewStoreWithDB(db))

	mock.ExpectExec(`INSERT INTO messages`).
		WillReturnResult(sqlmock.NewResult(1, 1))

	rec.Record(context.Background(), MembershipEvent{Actor: "admin", Operation: "assign", Role: "editor", Principal: "42", Success: true})

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestStoreNilDB(t *testing.T) {
	store := &Store{db: nil}

	if err := store.Save(context.Background(), CheckEvent{Principal: "42"}); err != nil {
		t.Errorf("Save() with nil db should not error, got: %v", err)
	}
}

func TestOpenStoreDisabled(t *testing.T) {
	store, err := OpenStore("")
	if err != nil {
		t.Fatalf("OpenStore() error = %v", err)
	}
	if store != nil {
		t.Errorf("OpenStore(\"\") = %v, want nil", store)
	}
}

func TestStoreClose(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}

	store := NewStoreWithDB(db)

	mock.ExpectClose()

	if err := store.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}
