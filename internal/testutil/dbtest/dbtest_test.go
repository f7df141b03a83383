package dbtest

import (
	"strings"
	"testing"

	"github.com/wesm/imsgvault/internal/testutil/tbmock"
)

func TestAddHandle_RequiresIdentifier(t *testing.T) {
	cdb := NewChatDB(t)
	mtb := tbmock.NewMockTB(t)
	cdb.T = mtb

	if !tbmock.ExpectFatal(mtb, func() { cdb.AddHandle(HandleOpts{}) }) {
		t.Fatal("AddHandle without identifier should fail the test")
	}
	if !strings.Contains(mtb.FatalMsg, "Identifier is required") {
		t.Errorf("FatalMsg = %q", mtb.FatalMsg)
	}
}

func TestInsert_FailsOnConstraint(t *testing.T) {
	cdb := NewChatDB(t)
	cdb.AddHandle(HandleOpts{Identifier: "+14155550100"})

	mtb := tbmock.NewMockTB(t)
	cdb.T = mtb
	if !tbmock.ExpectFatal(mtb, func() {
		cdb.insert("AddHandle", `INSERT INTO handle (ROWID, id, service) VALUES (1, 'x', 'iMessage')`)
	}) {
		t.Fatal("duplicate ROWID should fail the test")
	}
	if !strings.HasPrefix(mtb.FatalMsg, "AddHandle: ") {
		t.Errorf("FatalMsg = %q", mtb.FatalMsg)
	}
}

func TestSeedStandardDataSet(t *testing.T) {
	cdb := NewChatDB(t)
	cdb.SeedStandardDataSet()

	var handles, chats int
	if err := cdb.DB.QueryRow(`SELECT COUNT(*) FROM handle`).Scan(&handles); err != nil {
		t.Fatal(err)
	}
	if err := cdb.DB.QueryRow(`SELECT COUNT(*) FROM chat`).Scan(&chats); err != nil {
		t.Fatal(err)
	}
	if handles != 3 || chats != 4 {
		t.Errorf("handles = %d, chats = %d; want 3, 4", handles, chats)
	}
}

func TestAt(t *testing.T) {
	if d := At(1) - At(0); d != 3600*1_000_000_000 {
		t.Errorf("At(1) - At(0) = %d", d)
	}
}
