// Package models はユーザーとレシピの永続化モデルを定義します。
package models

import "errors"

// PasswordHasher はパスワードのハッシュ化と照合を行います。
type PasswordHasher interface {
	Hash(plaintext string) (string, error)
	Verify(hash, candidate string) bool
}

// User は users テーブルに対応します。
// パスワードはハッシュとしてのみ保持し、平文を取り出す手段は持ちません。
type User struct {
	ID           uint   `gorm:"primaryKey" json:"id"`
	Username     string `gorm:"size:100;uniqueIndex;not null" json:"username"`
	PasswordHash string `gorm:"column:password_hash;size:100;not null" json:"-"`
	ImageURL     string `gorm:"size:200" json:"image_url"`
	Bio          string `gorm:"size:255" json:"bio"`
}

// TableName はテーブル名を明示します。
func (User) TableName() string {
	return "users"
}

// SetPassword は平文パスワードをハッシュ化して保持します。
func (u *User) SetPassword(hasher PasswordHasher, plaintext string) error {
	if hasher == nil {
		return errors.New("password hasher is nil")
	}
	hash, err := hasher.Hash(plaintext)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	return nil
}

// VerifyPassword は候補のパスワードが保持しているハッシュと一致するかを返します。
func (u *User) VerifyPassword(hasher PasswordHasher, candidate string) bool {
	if hasher == nil || u.PasswordHash == "" {
		return false
	}
	return hasher.Verify(u.PasswordHash, candidate)
}
