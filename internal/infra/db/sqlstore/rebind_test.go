package sqlstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRebind(t *testing.T) {
	pg := New(nil, Dialect{Name: "postgres", Numbered: true})
	assert.Equal(t, "UPDATE runs SET status=$1 WHERE id=$2 AND status IN ($3,$4)",
		pg.q("UPDATE runs SET status=? WHERE id=? AND status IN ("+placeholders(2)+")"))

	my := New(nil, Dialect{Name: "mysql"})
	assert.Equal(t, "SELECT 1 WHERE a=?", my.q("SELECT 1 WHERE a=?"))
}
