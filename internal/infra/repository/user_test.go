package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func TestFoldASCII(t *testing.T) {
	testCases := []struct {
		in   string
		want string
	}{
		{in: "Alice", want: "alice"},
		{in: "ALICE@EXAMPLE.TEST", want: "alice@example.test"},
		{in: "Ünal", want: "Ünal"},
		{in: "ÜNAL", want: "Ünal"},
		{in: "İstanbul", want: "İstanbul"},
	}

	for _, tc := range testCases {
		t.Run(tc.in, func(t *testing.T) {
			assert.Equal(t, tc.want, FoldASCII(tc.in))
		})
	}
}

func TestFoldColumnPerDialect(t *testing.T) {
	pg := NewUserRepository(&gorm.DB{Config: &gorm.Config{Dialector: postgres.New(postgres.Config{})}})
	assert.Equal(t,
		"TRANSLATE(username, 'ABCDEFGHIJKLMNOPQRSTUVWXYZ', 'abcdefghijklmnopqrstuvwxyz')",
		pg.foldColumn("username"),
	)

	lite := NewUserRepository(&gorm.DB{Config: &gorm.Config{Dialector: sqlite.Open(":memory:")}})
	assert.Equal(t, "LOWER(email)", lite.foldColumn("email"))
}
