package service

import (
	"errors"
	"testing"
	"time"

	"satsjar/internal/credentials"
	"satsjar/internal/idgen"
	"satsjar/internal/models"
	"satsjar/internal/repository"
)

// fakeChildStore is an in-memory ChildStore for service tests
type fakeChildStore struct {
	children map[string]*models.Child // keyed by child ID
	jars     map[string]string        // jar ID -> child ID
	sessions map[string]*models.ChildSession

	createErrs []error // errors to return from CreateChild before succeeding
	failExists error   // error returned by the exists checks
}

func newFakeChildStore() *fakeChildStore {
	return &fakeChildStore{
		children: make(map[string]*models.Child),
		jars:     make(map[string]string),
		sessions: make(map[string]*models.ChildSession),
	}
}

func (f *fakeChildStore) CreateChild(child *models.Child) error {
	if len(f.createErrs) > 0 {
		err := f.createErrs[0]
		f.createErrs = f.createErrs[1:]
		return err
	}
	if _, ok := f.children[child.ChildID]; ok {
		return repository.ErrDuplicateChild
	}
	if _, ok := f.jars[child.JarID]; ok {
		return repository.ErrJarIDTaken
	}
	f.children[child.ChildID] = child
	f.jars[child.JarID] = child.ChildID
	return nil
}

func (f *fakeChildStore) ChildIDExists(childID string) (bool, error) {
	if f.failExists != nil {
		return false, f.failExists
	}
	_, ok := f.children[childID]
	return ok, nil
}

func (f *fakeChildStore) JarIDExists(jarID string) (bool, error) {
	if f.failExists != nil {
		return false, f.failExists
	}
	_, ok := f.jars[jarID]
	return ok, nil
}

func (f *fakeChildStore) GetChildByID(childID string) (*models.Child, error) {
	return f.children[childID], nil
}

func (f *fakeChildStore) GetChildByJarID(jarID string) (*models.Child, error) {
	childID, ok := f.jars[jarID]
	if !ok {
		return nil, nil
	}
	return f.children[childID], nil
}

func (f *fakeChildStore) ListChildrenByParent(parentID string) ([]models.Child, error) {
	var out []models.Child
	for _, c := range f.children {
		if c.ParentID == parentID {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (f *fakeChildStore) ListChildrenWithProgress(parentID string) ([]models.ChildWithProgress, error) {
	children, _ := f.ListChildrenByParent(parentID)
	out := make([]models.ChildWithProgress, 0, len(children))
	for _, c := range children {
		out = append(out, models.ChildWithProgress{Child: c})
	}
	return out, nil
}

func (f *fakeChildStore) UpdateChildName(childID, name string) error {
	if c, ok := f.children[childID]; ok {
		c.Name = name
	}
	return nil
}

func (f *fakeChildStore) UpdateChildPIN(childID, hashedPIN string) error {
	if c, ok := f.children[childID]; ok {
		c.HashedPIN = hashedPIN
	}
	return nil
}

func (f *fakeChildStore) DeleteChild(childID string) error {
	if c, ok := f.children[childID]; ok {
		delete(f.jars, c.JarID)
		delete(f.children, childID)
	}
	return nil
}

func (f *fakeChildStore) CreateChildSession(sessionID, childID string, expiresAt time.Time) error {
	f.sessions[sessionID] = &models.ChildSession{
		ID:        sessionID,
		ChildID:   childID,
		ExpiresAt: expiresAt,
	}
	return nil
}

func (f *fakeChildStore) GetChildSession(sessionID string) (*models.ChildSession, error) {
	return f.sessions[sessionID], nil
}

func (f *fakeChildStore) DeleteChildSession(sessionID string) error {
	delete(f.sessions, sessionID)
	return nil
}

func (f *fakeChildStore) DeleteExpiredChildSessions() error {
	for id, s := range f.sessions {
		if s.IsExpired() {
			delete(f.sessions, id)
		}
	}
	return nil
}

func TestProvisionChild(t *testing.T) {
	store := newFakeChildStore()
	svc := NewFamilyService(store, time.Hour)

	child, pin, err := svc.ProvisionChild("parent-1", "Jane Doe", 9, "")
	if err != nil {
		t.Fatalf("ProvisionChild() error = %v", err)
	}

	if !idgen.ValidChildID(child.ChildID) {
		t.Errorf("child ID %q is not valid", child.ChildID)
	}
	if !idgen.ValidJarID(child.JarID) {
		t.Errorf("jar ID %q is not valid", child.JarID)
	}
	if child.ChildID != idgen.DeriveChildID("parent-1", "Jane Doe") {
		t.Errorf("child ID %q is not the derived ID", child.ChildID)
	}
	if len(pin) != 6 {
		t.Errorf("PIN %q is not 6 digits", pin)
	}
	if !credentials.VerifyChildPIN(pin, child.HashedPIN) {
		t.Error("returned PIN does not verify against stored hash")
	}
	if stored, _ := store.GetChildByID(child.ChildID); stored == nil {
		t.Error("child was not persisted")
	}
}

func TestProvisionChildSuppliedPIN(t *testing.T) {
	store := newFakeChildStore()
	svc := NewFamilyService(store, time.Hour)

	child, pin, err := svc.ProvisionChild("parent-1", "Jane Doe", 9, "112233")
	if err != nil {
		t.Fatalf("ProvisionChild() error = %v", err)
	}
	if pin != "112233" {
		t.Errorf("PIN = %q, want the supplied one", pin)
	}
	if !credentials.VerifyChildPIN("112233", child.HashedPIN) {
		t.Error("supplied PIN does not verify against stored hash")
	}
}

func TestProvisionChildDuplicateName(t *testing.T) {
	store := newFakeChildStore()
	svc := NewFamilyService(store, time.Hour)

	if _, _, err := svc.ProvisionChild("parent-1", "Jane Doe", 9, ""); err != nil {
		t.Fatalf("first ProvisionChild() error = %v", err)
	}

	// Same name under the same parent, even with different casing and age
	_, _, err := svc.ProvisionChild("parent-1", "JANE  doe", 10, "")
	if !errors.Is(err, ErrDuplicateChildName) {
		t.Errorf("ProvisionChild() error = %v, want ErrDuplicateChildName", err)
	}

	// Same name under a different parent is fine
	if _, _, err := svc.ProvisionChild("parent-2", "Jane Doe", 9, ""); err != nil {
		t.Errorf("ProvisionChild() for other parent error = %v", err)
	}
}

func TestProvisionChildJarCollision(t *testing.T) {
	store := newFakeChildStore()
	svc := NewFamilyService(store, time.Hour)

	// Occupy the derived jar ID with another child
	candidate := idgen.DeriveJarID("Jane Doe", "parent-1", 9)
	store.children["other"] = &models.Child{ChildID: "other", JarID: candidate}
	store.jars[candidate] = "other"

	child, _, err := svc.ProvisionChild("parent-1", "Jane Doe", 9, "")
	if err != nil {
		t.Fatalf("ProvisionChild() error = %v", err)
	}
	want := candidate[:idgen.JarIDLength-1] + "1"
	if child.JarID != want {
		t.Errorf("jar ID = %q, want fallback %q", child.JarID, want)
	}
}

func TestProvisionChildInsertRaceRetries(t *testing.T) {
	store := newFakeChildStore()
	store.createErrs = []error{repository.ErrJarIDTaken}
	svc := NewFamilyService(store, time.Hour)

	child, _, err := svc.ProvisionChild("parent-1", "Jane Doe", 9, "")
	if err != nil {
		t.Fatalf("ProvisionChild() error = %v", err)
	}
	if child == nil {
		t.Fatal("ProvisionChild() returned nil child after retry")
	}
}

func TestProvisionChildValidation(t *testing.T) {
	store := newFakeChildStore()
	svc := NewFamilyService(store, time.Hour)

	tests := []struct {
		name      string
		childName string
		age       int
		pin       string
	}{
		{"empty name", "", 9, ""},
		{"short name", "J", 9, ""},
		{"age zero", "Jane Doe", 0, ""},
		{"age too high", "Jane Doe", 18, ""},
		{"short pin", "Jane Doe", 9, "123"},
		{"non-numeric pin", "Jane Doe", 9, "12a456"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := svc.ProvisionChild("parent-1", tt.childName, tt.age, tt.pin); err == nil {
				t.Error("ProvisionChild() expected validation error, got nil")
			}
		})
	}
}

func TestProvisionChildStoreError(t *testing.T) {
	store := newFakeChildStore()
	store.failExists = errors.New("db down")
	svc := NewFamilyService(store, time.Hour)

	if _, _, err := svc.ProvisionChild("parent-1", "Jane Doe", 9, ""); err == nil {
		t.Error("ProvisionChild() expected error when store fails, got nil")
	}
}

func TestChildLogin(t *testing.T) {
	store := newFakeChildStore()
	svc := NewFamilyService(store, time.Hour)

	child, pin, err := svc.ProvisionChild("parent-1", "Jane Doe", 9, "")
	if err != nil {
		t.Fatalf("ProvisionChild() error = %v", err)
	}

	session, got, err := svc.ChildLogin(child.JarID, pin)
	if err != nil {
		t.Fatalf("ChildLogin() error = %v", err)
	}
	if got.ChildID != child.ChildID {
		t.Errorf("ChildLogin() child = %q, want %q", got.ChildID, child.ChildID)
	}
	if session.IsExpired() {
		t.Error("new session is already expired")
	}

	// Session validates back to the same child
	validated, err := svc.ValidateChildSession(session.ID)
	if err != nil {
		t.Fatalf("ValidateChildSession() error = %v", err)
	}
	if validated.ChildID != child.ChildID {
		t.Errorf("ValidateChildSession() child = %q, want %q", validated.ChildID, child.ChildID)
	}
}

func TestChildLoginFailures(t *testing.T) {
	store := newFakeChildStore()
	svc := NewFamilyService(store, time.Hour)

	child, pin, err := svc.ProvisionChild("parent-1", "Jane Doe", 9, "")
	if err != nil {
		t.Fatalf("ProvisionChild() error = %v", err)
	}

	tests := []struct {
		name  string
		jarID string
		pin   string
	}{
		{"wrong pin", child.JarID, "000000"},
		{"unknown jar", "AAAAAA", pin},
		{"malformed jar", "not-a-jar", pin},
		{"lowercase jar", "abc123", pin},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := svc.ChildLogin(tt.jarID, tt.pin); !errors.Is(err, ErrChildLoginFailed) {
				t.Errorf("ChildLogin() error = %v, want ErrChildLoginFailed", err)
			}
		})
	}
}

func TestValidateChildSessionExpired(t *testing.T) {
	store := newFakeChildStore()
	svc := NewFamilyService(store, time.Hour)

	store.sessions["old"] = &models.ChildSession{
		ID:        "old",
		ChildID:   "child-1",
		ExpiresAt: time.Now().Add(-time.Minute),
	}

	if _, err := svc.ValidateChildSession("old"); !errors.Is(err, ErrSessionExpired) {
		t.Errorf("ValidateChildSession() error = %v, want ErrSessionExpired", err)
	}
	if _, ok := store.sessions["old"]; ok {
		t.Error("expired session was not removed")
	}
}

func TestGetChildOwnership(t *testing.T) {
	store := newFakeChildStore()
	svc := NewFamilyService(store, time.Hour)

	child, _, err := svc.ProvisionChild("parent-1", "Jane Doe", 9, "")
	if err != nil {
		t.Fatalf("ProvisionChild() error = %v", err)
	}

	if _, err := svc.GetChild("parent-2", child.ChildID); !errors.Is(err, ErrNotChildParent) {
		t.Errorf("GetChild() error = %v, want ErrNotChildParent", err)
	}
	if _, err := svc.GetChild("parent-1", "missing"); !errors.Is(err, ErrChildNotFound) {
		t.Errorf("GetChild() error = %v, want ErrChildNotFound", err)
	}
}

func TestRegenerateChildPIN(t *testing.T) {
	store := newFakeChildStore()
	svc := NewFamilyService(store, time.Hour)

	child, oldPIN, err := svc.ProvisionChild("parent-1", "Jane Doe", 9, "")
	if err != nil {
		t.Fatalf("ProvisionChild() error = %v", err)
	}

	newPIN, err := svc.RegenerateChildPIN("parent-1", child.ChildID)
	if err != nil {
		t.Fatalf("RegenerateChildPIN() error = %v", err)
	}

	stored, _ := store.GetChildByID(child.ChildID)
	if !credentials.VerifyChildPIN(newPIN, stored.HashedPIN) {
		t.Error("new PIN does not verify against stored hash")
	}
	if oldPIN != newPIN && credentials.VerifyChildPIN(oldPIN, stored.HashedPIN) {
		t.Error("old PIN still verifies after regeneration")
	}
}
