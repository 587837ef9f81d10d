// Package seed creates demo data for development databases. It is not used by
// the request path.
package seed

import (
	"fmt"
	"math/rand"
	"strings"
	"time"
	"unicode/utf8"

	"warbler/internal/models"
	"warbler/internal/validation"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Factory builds domain entities and persists them to the database.
type Factory struct {
	db    *gorm.DB
	opts  Options
	faker *gofakeit.Faker
	rng   *rand.Rand
	hash  string
	seq   int
}

// NewFactory creates a Factory bound to db. Every generated user gets
// opts.Password, hashed once up front.
func NewFactory(db *gorm.DB, opts Options) (*Factory, error) {
	opts = opts.withDefaults()

	seed := opts.RandSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	hash := opts.Password
	if !opts.SkipBcrypt {
		b, err := bcrypt.GenerateFromPassword([]byte(opts.Password), opts.BcryptCost)
		if err != nil {
			return nil, fmt.Errorf("hash seed password: %w", err)
		}
		hash = string(b)
	}

	// #nosec G404: acceptable for seeding
	rng := rand.New(rand.NewSource(seed))
	return &Factory{
		db:    db,
		opts:  opts,
		faker: gofakeit.New(seed),
		rng:   rng,
		hash:  hash,
	}, nil
}

// CreateUser constructs and persists a fake user. Overrides run before saving.
func (f *Factory) CreateUser(overrides ...func(*models.User)) (*models.User, error) {
	f.seq++
	username := f.username()
	user := &models.User{
		Username:       username,
		Email:          fmt.Sprintf("%s@example.com", username),
		Password:       f.hash,
		ImageURL:       fmt.Sprintf("https://i.pravatar.cc/150?u=%s", username),
		HeaderImageURL: models.DefaultHeaderImageURL,
		Bio:            truncate(f.faker.Sentence(10), validation.MaxBioLength),
		Location:       truncate(f.faker.City(), validation.MaxLocationLength),
	}

	for _, override := range overrides {
		override(user)
	}

	if err := f.db.Omit(clause.Associations).Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// CreateMessage constructs and persists a fake message by author, dated
// somewhere in the last opts.MaxDays days.
func (f *Factory) CreateMessage(author *models.User, overrides ...func(*models.Message)) (*models.Message, error) {
	msg := &models.Message{
		UserID:    author.ID,
		Text:      truncate(f.faker.Sentence(f.rng.Intn(12)+3), models.MaxMessageLength),
		CreatedAt: f.pastTime(),
	}

	for _, override := range overrides {
		override(msg)
	}

	if err := f.db.Omit(clause.Associations).Create(msg).Error; err != nil {
		return nil, err
	}
	return msg, nil
}

// CreateFollow makes follower follow followed. Existing edges are left alone.
func (f *Factory) CreateFollow(follower, followed *models.User) error {
	follow := &models.Follow{FollowerID: follower.ID, FollowedID: followed.ID}
	return f.db.Omit(clause.Associations).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(follow).Error
}

// CreateLike records user liking msg. Existing likes are left alone.
func (f *Factory) CreateLike(user *models.User, msg *models.Message) error {
	like := &models.Like{UserID: user.ID, MessageID: msg.ID}
	return f.db.Omit(clause.Associations).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(like).Error
}

// username returns a valid, per-factory unique username.
func (f *Factory) username() string {
	base := sanitizeUsername(f.faker.FirstName() + f.faker.LastName())
	if base == "" {
		base = "warbler"
	}
	suffix := fmt.Sprintf("%d", f.seq)
	if limit := validation.MaxUsernameLength - len(suffix); len(base) > limit {
		base = base[:limit]
	}
	return base + suffix
}

func (f *Factory) pastTime() time.Time {
	daysBack := f.rng.Intn(f.opts.MaxDays)
	hoursBack := f.rng.Intn(24)
	minsBack := f.rng.Intn(60)
	return time.Now().Add(-time.Duration(daysBack)*24*time.Hour -
		time.Duration(hoursBack)*time.Hour -
		time.Duration(minsBack)*time.Minute)
}

func sanitizeUsername(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		case r >= 'A' && r <= 'Z':
			return r + ('a' - 'A')
		}
		return -1
	}, s)
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return strings.TrimSpace(string([]rune(s)[:n]))
}
