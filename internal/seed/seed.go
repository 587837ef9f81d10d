package seed

import (
	"context"
	"fmt"

	"warbler/internal/middleware"
	"warbler/internal/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// DefaultPassword is what every generated user can log in with.
const DefaultPassword = "password123"

// Options configuration for the seeder
type Options struct {
	NumUsers       int
	NumMessages    int
	FollowsPerUser int
	LikesPerUser   int
	MaxDays        int

	Password   string
	BcryptCost int
	// SkipBcrypt stores Password as-is. Only for tests.
	SkipBcrypt bool
	// RandSeed makes a run reproducible. Zero picks a time-based seed.
	RandSeed int64
}

func (o Options) withDefaults() Options {
	if o.MaxDays <= 0 {
		o.MaxDays = 90
	}
	if o.Password == "" {
		o.Password = DefaultPassword
	}
	if o.BcryptCost == 0 {
		o.BcryptCost = bcrypt.DefaultCost
	}
	return o
}

// Summary counts what a seeding run created.
type Summary struct {
	Users    int
	Messages int
	Follows  int
	Likes    int
}

// Seeder populates a database with a random social graph.
type Seeder struct {
	db      *gorm.DB
	opts    Options
	factory *Factory
}

// NewSeeder prepares a seeder for db.
func NewSeeder(db *gorm.DB, opts Options) (*Seeder, error) {
	factory, err := NewFactory(db, opts)
	if err != nil {
		return nil, err
	}
	return &Seeder{db: db, opts: factory.opts, factory: factory}, nil
}

// Run creates users, then messages spread across them, then follows and likes.
func (s *Seeder) Run(ctx context.Context) (Summary, error) {
	var sum Summary
	log := middleware.Logger

	log.InfoContext(ctx, "seeding database",
		"users", s.opts.NumUsers,
		"messages", s.opts.NumMessages,
	)

	users, err := s.SeedUsers(s.opts.NumUsers)
	if err != nil {
		return sum, fmt.Errorf("failed to create users: %w", err)
	}
	sum.Users = len(users)
	if len(users) == 0 {
		return sum, nil
	}

	msgs, err := s.SeedMessages(users, s.opts.NumMessages)
	if err != nil {
		return sum, fmt.Errorf("failed to create messages: %w", err)
	}
	sum.Messages = len(msgs)

	if sum.Follows, err = s.SeedFollows(users, s.opts.FollowsPerUser); err != nil {
		return sum, fmt.Errorf("failed to create follows: %w", err)
	}
	if sum.Likes, err = s.SeedLikes(users, msgs, s.opts.LikesPerUser); err != nil {
		return sum, fmt.Errorf("failed to create likes: %w", err)
	}

	log.InfoContext(ctx, "seeding complete",
		"users", sum.Users,
		"messages", sum.Messages,
		"follows", sum.Follows,
		"likes", sum.Likes,
	)
	return sum, nil
}

// SeedUsers creates n fake users.
func (s *Seeder) SeedUsers(n int) ([]*models.User, error) {
	users := make([]*models.User, 0, n)
	for i := 0; i < n; i++ {
		u, err := s.factory.CreateUser()
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, nil
}

// SeedMessages creates n messages, each by a random user.
func (s *Seeder) SeedMessages(users []*models.User, n int) ([]*models.Message, error) {
	msgs := make([]*models.Message, 0, n)
	if len(users) == 0 {
		return msgs, nil
	}
	for i := 0; i < n; i++ {
		author := users[s.factory.rng.Intn(len(users))]
		m, err := s.factory.CreateMessage(author)
		if err != nil {
			return nil, err
		}
		msgs = append(msgs, m)
	}
	return msgs, nil
}

// SeedFollows makes every user follow up to perUser distinct others.
func (s *Seeder) SeedFollows(users []*models.User, perUser int) (int, error) {
	created := 0
	for i, u := range users {
		for _, j := range s.pick(len(users), perUser, i) {
			if err := s.factory.CreateFollow(u, users[j]); err != nil {
				return created, err
			}
			created++
		}
	}
	return created, nil
}

// SeedLikes makes every user like up to perUser distinct messages they did not write.
func (s *Seeder) SeedLikes(users []*models.User, msgs []*models.Message, perUser int) (int, error) {
	created := 0
	for _, u := range users {
		liked := 0
		for _, j := range s.factory.rng.Perm(len(msgs)) {
			if liked >= perUser {
				break
			}
			m := msgs[j]
			if m.IsAuthoredBy(u.ID) {
				continue
			}
			if err := s.factory.CreateLike(u, m); err != nil {
				return created, err
			}
			liked++
			created++
		}
	}
	return created, nil
}

// ClearAll removes all seeded tables' rows, children first.
func (s *Seeder) ClearAll() error {
	middleware.Logger.Info("clearing existing data")
	return s.db.Transaction(func(tx *gorm.DB) error {
		for _, model := range []any{&models.Like{}, &models.Follow{}, &models.Message{}, &models.User{}} {
			if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(model).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// pick returns up to k distinct indexes in [0,n) other than skip.
func (s *Seeder) pick(n, k, skip int) []int {
	out := make([]int, 0, k)
	for _, j := range s.factory.rng.Perm(n) {
		if len(out) >= k {
			break
		}
		if j != skip {
			out = append(out, j)
		}
	}
	return out
}
