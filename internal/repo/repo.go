package repo

import (
	"errors"

	"gorm.io/gorm"
)

var (
	ErrDuplicateAccount = errors.New("account already exists")
	ErrUnknownAccount   = errors.New("unknown account")
	ErrBadCredentials   = errors.New("bad credentials")
	ErrNotFound         = errors.New("not found")
)

type GormRepo struct {
	DB *gorm.DB
}

func New(db *gorm.DB) *GormRepo {
	return &GormRepo{DB: db}
}
