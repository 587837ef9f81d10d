package seed

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"warbler/internal/models"
	"warbler/internal/validation"

	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Fixture is a hand-written data set, loaded from YAML:
//
//	users:
//	  - username: alice
//	    email: alice@example.com
//	    password: secret1
//	messages:
//	  - author: alice
//	    text: hello
//	follows:
//	  - follower: bob
//	    followed: alice
//	likes:
//	  - user: bob
//	    message: 0   # index into messages
type Fixture struct {
	Users    []FixtureUser    `yaml:"users"`
	Messages []FixtureMessage `yaml:"messages"`
	Follows  []FixtureFollow  `yaml:"follows"`
	Likes    []FixtureLike    `yaml:"likes"`
}

type FixtureUser struct {
	Username       string `yaml:"username"`
	Email          string `yaml:"email"`
	Password       string `yaml:"password"`
	ImageURL       string `yaml:"image_url"`
	HeaderImageURL string `yaml:"header_image_url"`
	Bio            string `yaml:"bio"`
	Location       string `yaml:"location"`
}

type FixtureMessage struct {
	Author string `yaml:"author"`
	Text   string `yaml:"text"`
}

type FixtureFollow struct {
	Follower string `yaml:"follower"`
	Followed string `yaml:"followed"`
}

type FixtureLike struct {
	User    string `yaml:"user"`
	Message int    `yaml:"message"`
}

// LoadFixture reads and parses a YAML fixture file.
func LoadFixture(path string) (*Fixture, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture: %w", err)
	}
	return ParseFixture(b)
}

// ParseFixture decodes YAML fixture data. Unknown keys are rejected; empty
// input is an empty fixture.
func ParseFixture(data []byte) (*Fixture, error) {
	var fx Fixture
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&fx); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse fixture: %w", err)
	}
	return &fx, nil
}

// Validate applies the same field rules as signup and posting, and checks
// that every reference resolves within the fixture.
func (fx *Fixture) Validate() error {
	names := make(map[string]bool, len(fx.Users))
	for i, u := range fx.Users {
		if err := validation.ValidateUsername(u.Username); err != nil {
			return fmt.Errorf("users[%d]: %w", i, err)
		}
		if err := validation.ValidateEmail(u.Email); err != nil {
			return fmt.Errorf("users[%d]: %w", i, err)
		}
		if err := validation.ValidatePassword(u.Password); err != nil {
			return fmt.Errorf("users[%d]: %w", i, err)
		}
		if names[u.Username] {
			return fmt.Errorf("users[%d]: duplicate username %q", i, u.Username)
		}
		names[u.Username] = true
	}
	for i, m := range fx.Messages {
		if !names[m.Author] {
			return fmt.Errorf("messages[%d]: unknown author %q", i, m.Author)
		}
		if _, err := validation.NormalizeMessageText(m.Text); err != nil {
			return fmt.Errorf("messages[%d]: %w", i, err)
		}
	}
	for i, f := range fx.Follows {
		if !names[f.Follower] || !names[f.Followed] {
			return fmt.Errorf("follows[%d]: unknown user", i)
		}
		if f.Follower == f.Followed {
			return fmt.Errorf("follows[%d]: %s can not follow themselves", i, f.Follower)
		}
	}
	for i, l := range fx.Likes {
		if !names[l.User] {
			return fmt.Errorf("likes[%d]: unknown user %q", i, l.User)
		}
		if l.Message < 0 || l.Message >= len(fx.Messages) {
			return fmt.Errorf("likes[%d]: message index %d out of range", i, l.Message)
		}
		if fx.Messages[l.Message].Author == l.User {
			return fmt.Errorf("likes[%d]: %s can not like their own message", i, l.User)
		}
	}
	return nil
}

// ApplyFixture validates fx and writes it in one transaction.
func ApplyFixture(db *gorm.DB, fx *Fixture, bcryptCost int) (Summary, error) {
	var sum Summary
	if err := fx.Validate(); err != nil {
		return sum, err
	}
	if bcryptCost == 0 {
		bcryptCost = bcrypt.DefaultCost
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		ids := make(map[string]uint, len(fx.Users))
		for _, fu := range fx.Users {
			hash, err := bcrypt.GenerateFromPassword([]byte(fu.Password), bcryptCost)
			if err != nil {
				return err
			}
			u := &models.User{
				Username:       fu.Username,
				Email:          fu.Email,
				Password:       string(hash),
				ImageURL:       orDefault(fu.ImageURL, models.DefaultImageURL),
				HeaderImageURL: orDefault(fu.HeaderImageURL, models.DefaultHeaderImageURL),
				Bio:            fu.Bio,
				Location:       fu.Location,
			}
			if err := tx.Omit(clause.Associations).Create(u).Error; err != nil {
				return fmt.Errorf("create user %s: %w", fu.Username, err)
			}
			ids[fu.Username] = u.ID
		}

		msgIDs := make([]uint, len(fx.Messages))
		for i, fm := range fx.Messages {
			text, _ := validation.NormalizeMessageText(fm.Text)
			m := &models.Message{UserID: ids[fm.Author], Text: text}
			if err := tx.Omit(clause.Associations).Create(m).Error; err != nil {
				return fmt.Errorf("create message %d: %w", i, err)
			}
			msgIDs[i] = m.ID
		}

		for _, ff := range fx.Follows {
			f := &models.Follow{FollowerID: ids[ff.Follower], FollowedID: ids[ff.Followed]}
			if err := tx.Omit(clause.Associations).Clauses(clause.OnConflict{DoNothing: true}).Create(f).Error; err != nil {
				return err
			}
		}

		for _, fl := range fx.Likes {
			l := &models.Like{UserID: ids[fl.User], MessageID: msgIDs[fl.Message]}
			if err := tx.Omit(clause.Associations).Clauses(clause.OnConflict{DoNothing: true}).Create(l).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return sum, err
	}

	sum = Summary{
		Users:    len(fx.Users),
		Messages: len(fx.Messages),
		Follows:  len(fx.Follows),
		Likes:    len(fx.Likes),
	}
	return sum, nil
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
