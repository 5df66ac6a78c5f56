package seed

import (
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/Curious-3/EchoesOfArt-sub000/internal/logger"
	"github.com/Curious-3/EchoesOfArt-sub000/internal/models"
	"github.com/brianvoe/gofakeit/v7"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DefaultPassword is the password of every seeded account.
const DefaultPassword = "password123"

// Seeder fills a database with fake but consistent content.
type Seeder struct {
	db  *gorm.DB
	rng *rand.Rand
}

// NewSeeder creates a new seeder instance
func NewSeeder(db *gorm.DB) *Seeder {
	seed := time.Now().UnixNano()
	_ = gofakeit.Seed(seed)
	return &Seeder{db: db, rng: rand.New(rand.NewSource(seed))}
}

// Counts sizes a development seed.
type Counts struct {
	Users           int
	Posts           int
	Writings        int
	Comments        int
	WritingComments int
	Likes           int
	Follows         int
}

// DevCounts is the default development data set.
var DevCounts = Counts{
	Users:           40,
	Posts:           200,
	Writings:        120,
	Comments:        400,
	WritingComments: 300,
	Likes:           1500,
	Follows:         300,
}

// SeedDev seeds the development database with realistic data
func (s *Seeder) SeedDev(n Counts) error {
	logger.Log.Info("Creating users...")
	users, err := s.seedUsers(n.Users)
	if err != nil {
		return fmt.Errorf("failed to seed users: %w", err)
	}

	logger.Log.Info("Creating posts...")
	posts, err := s.seedPosts(users, n.Posts)
	if err != nil {
		return fmt.Errorf("failed to seed posts: %w", err)
	}

	logger.Log.Info("Creating writings...")
	writings, err := s.seedWritings(users, n.Writings)
	if err != nil {
		return fmt.Errorf("failed to seed writings: %w", err)
	}

	logger.Log.Info("Creating follows and engagement...")
	if err := s.seedFollows(users, n.Follows); err != nil {
		return fmt.Errorf("failed to seed follows: %w", err)
	}
	if err := s.seedEngagement(users, posts, writings, n.Likes); err != nil {
		return fmt.Errorf("failed to seed engagement: %w", err)
	}

	logger.Log.Info("Creating comments...")
	if err := s.seedComments(users, posts, n.Comments); err != nil {
		return fmt.Errorf("failed to seed comments: %w", err)
	}
	if err := s.seedWritingComments(users, writings, n.WritingComments); err != nil {
		return fmt.Errorf("failed to seed writing comments: %w", err)
	}

	return s.RecountCounters()
}

// SeedTest seeds a small fixed data set for end-to-end tests.
func (s *Seeder) SeedTest() error {
	specs := []struct{ name, email string }{
		{"Alice Smith", "alice@example.com"},
		{"Bob Johnson", "bob@example.com"},
		{"Charlie Brown", "charlie@example.com"},
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(DefaultPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	users := make([]models.User, 0, len(specs))
	for _, spec := range specs {
		var user models.User
		err := s.db.Where("email = ?", spec.email).First(&user).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			user = models.User{
				Name:         spec.name,
				Email:        spec.email,
				PasswordHash: string(hash),
				DateOfBirth:  time.Date(1995, 6, 15, 0, 0, 0, 0, time.UTC),
				IsVerified:   true,
			}
			if err := s.db.Create(&user).Error; err != nil {
				return fmt.Errorf("failed to create user %s: %w", spec.email, err)
			}
		} else if err != nil {
			return err
		}
		users = append(users, user)
	}

	alice := users[0]
	writing := models.Writing{
		UserID:  alice.ID,
		Title:   "First Light",
		Content: "<p>The harbor wakes before the gulls do.</p>",
		Status:  models.WritingPublished,
		Tags:    models.StringArray{"poetry", "sea"},
	}
	now := time.Now().UTC()
	writing.PublishedAt = &now
	if err := s.db.Where("user_id = ? AND title = ?", alice.ID, writing.Title).FirstOrCreate(&writing).Error; err != nil {
		return fmt.Errorf("failed to create writing: %w", err)
	}
	draft := models.Writing{UserID: alice.ID, Title: "Notes", Content: "<p>unfinished</p>", Status: models.WritingDraft}
	if err := s.db.Where("user_id = ? AND title = ?", alice.ID, draft.Title).FirstOrCreate(&draft).Error; err != nil {
		return fmt.Errorf("failed to create draft: %w", err)
	}
	post := models.Post{
		UserID:    alice.ID,
		Title:     "Harbor at Dawn",
		MediaURL:  "https://picsum.photos/seed/harbor/1200/800",
		MediaType: models.MediaImage,
		Category:  "photography",
	}
	if err := s.db.Where("user_id = ? AND title = ?", alice.ID, post.Title).FirstOrCreate(&post).Error; err != nil {
		return fmt.Errorf("failed to create post: %w", err)
	}

	logger.Log.Info("Seeded test fixtures", zap.Int("users", len(users)))
	return s.RecountCounters()
}

// Clean removes every row, dependents first.
func (s *Seeder) Clean() error {
	all := models.All()
	for i := len(all) - 1; i >= 0; i-- {
		if err := s.db.Session(&gorm.Session{AllowGlobalUpdate: true}).Unscoped().Delete(all[i]).Error; err != nil {
			return fmt.Errorf("failed to clean %T: %w", all[i], err)
		}
	}
	return nil
}

// RecountCounters rewrites every denormalised counter from the membership
// and comment tables.
func (s *Seeder) RecountCounters() error {
	statements := []string{
		"UPDATE posts SET like_count = (SELECT COUNT(*) FROM likes WHERE likes.post_id = posts.id)",
		"UPDATE posts SET comment_count = (SELECT COUNT(*) FROM comments WHERE comments.post_id = posts.id)",
		"UPDATE writings SET like_count = (SELECT COUNT(*) FROM writing_likes WHERE writing_likes.writing_id = writings.id)",
		"UPDATE writings SET bookmark_count = (SELECT COUNT(*) FROM writing_bookmarks WHERE writing_bookmarks.writing_id = writings.id)",
		"UPDATE writings SET comment_count = (SELECT COUNT(*) FROM writing_comments WHERE writing_comments.writing_id = writings.id)",
		"UPDATE writings SET report_count = (SELECT COUNT(*) FROM writing_reports WHERE writing_reports.writing_id = writings.id)",
		"UPDATE users SET follower_count = (SELECT COUNT(*) FROM follows WHERE follows.following_id = users.id)",
		"UPDATE users SET following_count = (SELECT COUNT(*) FROM follows WHERE follows.follower_id = users.id)",
	}
	for _, stmt := range statements {
		if err := s.db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("failed to recount counters: %w", err)
		}
	}
	return nil
}

var (
	interests  = []string{"painting", "poetry", "photography", "illustration", "music", "film", "sculpture", "fiction", "calligraphy", "ceramics"}
	categories = []string{"painting", "photography", "digital", "music", "film", "poetry"}
	mediaTypes = []models.MediaType{models.MediaImage, models.MediaImage, models.MediaVideo, models.MediaAudio, models.MediaText}
	emojis     = []string{"🔥", "❤️", "👏", "😍", "🎨", "✨"}
)

func (s *Seeder) pick(items []string, n int) []string {
	seen := make(map[string]bool, n)
	out := make([]string, 0, n)
	for len(out) < n && len(seen) < len(items) {
		item := items[s.rng.Intn(len(items))]
		if !seen[item] {
			seen[item] = true
			out = append(out, item)
		}
	}
	return out
}

func titleCase(phrase string) string {
	words := strings.Fields(phrase)
	for i, w := range words {
		if w == "of" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

func (s *Seeder) recent() time.Time {
	return gofakeit.DateRange(time.Now().AddDate(0, 0, -60), time.Now()).UTC()
}

func (s *Seeder) seedUsers(count int) ([]models.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(DefaultPassword), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	users := make([]models.User, 0, count)
	for i := 0; i < count; i++ {
		name := gofakeit.Name()
		first, last, _ := strings.Cut(name, " ")
		user := models.User{
			Name:         name,
			Email:        fmt.Sprintf("%s.%d@example.com", strings.ToLower(gofakeit.Username()), i),
			PasswordHash: string(hash),
			DateOfBirth:  gofakeit.DateRange(time.Now().AddDate(-60, 0, 0), time.Now().AddDate(-16, 0, 0)).UTC(),
			FirstName:    first,
			LastName:     last,
			Bio:          gofakeit.HipsterSentence(),
			Interests:    models.StringArray(s.pick(interests, s.rng.Intn(3)+1)),
			ProfileImage: "https://api.dicebear.com/7.x/shapes/png?seed=" + gofakeit.UUID(),
			IsVerified:   true,
		}
		if err := s.db.Create(&user).Error; err != nil {
			return nil, fmt.Errorf("failed to create user: %w", err)
		}
		users = append(users, user)
	}
	logger.Log.Info("Created users", zap.Int("count", len(users)))
	return users, nil
}

func (s *Seeder) seedPosts(users []models.User, count int) ([]models.Post, error) {
	if len(users) == 0 {
		return nil, nil
	}
	posts := make([]models.Post, 0, count)
	for i := 0; i < count; i++ {
		mediaType := mediaTypes[s.rng.Intn(len(mediaTypes))]
		seed := gofakeit.UUID()
		post := models.Post{
			UserID:      users[s.rng.Intn(len(users))].ID,
			Title:       titleCase(gofakeit.Word() + " " + gofakeit.Word()),
			Description: gofakeit.HipsterSentence(),
			MediaURL:    "https://picsum.photos/seed/" + seed + "/1200/800",
			MediaType:   mediaType,
			Tags:        models.StringArray(s.pick(interests, 2)),
			Category:    categories[s.rng.Intn(len(categories))],
			Views:       int64(s.rng.Intn(500)),
		}
		if mediaType != models.MediaImage {
			post.ThumbnailURL = "https://picsum.photos/seed/" + seed + "/400/300"
		}
		post.CreatedAt = s.recent()
		post.UpdatedAt = post.CreatedAt
		if err := s.db.Create(&post).Error; err != nil {
			return nil, fmt.Errorf("failed to create post: %w", err)
		}
		posts = append(posts, post)
	}
	logger.Log.Info("Created posts", zap.Int("count", len(posts)))
	return posts, nil
}

func (s *Seeder) paragraphs(n int) string {
	var b strings.Builder
	for i := 0; i < n; i++ {
		b.WriteString("<p>")
		b.WriteString(gofakeit.HipsterSentence())
		b.WriteString(" ")
		b.WriteString(gofakeit.HipsterSentence())
		b.WriteString("</p>")
	}
	return b.String()
}

func (s *Seeder) seedWritings(users []models.User, count int) ([]models.Writing, error) {
	if len(users) == 0 {
		return nil, nil
	}
	writings := make([]models.Writing, 0, count)
	for i := 0; i < count; i++ {
		w := models.Writing{
			UserID:  users[s.rng.Intn(len(users))].ID,
			Title:   titleCase(gofakeit.Word() + " of " + gofakeit.Word()),
			Content: s.paragraphs(s.rng.Intn(4) + 1),
			Status:  models.WritingPublished,
			Tags:    models.StringArray(s.pick(interests, s.rng.Intn(3)+1)),
		}
		w.CreatedAt = s.recent()
		w.UpdatedAt = w.CreatedAt
		if s.rng.Float32() < 0.2 {
			w.Status = models.WritingDraft
		} else {
			published := w.CreatedAt
			w.PublishedAt = &published
		}
		if err := s.db.Create(&w).Error; err != nil {
			return nil, fmt.Errorf("failed to create writing: %w", err)
		}
		writings = append(writings, w)
	}
	logger.Log.Info("Created writings", zap.Int("count", len(writings)))
	return writings, nil
}

// insertIgnore inserts a membership row, skipping it when it already exists.
func (s *Seeder) insertIgnore(row interface{}) error {
	return s.db.Clauses(clause.OnConflict{DoNothing: true}).Create(row).Error
}

func (s *Seeder) seedFollows(users []models.User, count int) error {
	if len(users) < 2 {
		return nil
	}
	for i := 0; i < count; i++ {
		a, b := users[s.rng.Intn(len(users))], users[s.rng.Intn(len(users))]
		if a.ID == b.ID {
			continue
		}
		if err := s.insertIgnore(&models.Follow{FollowerID: a.ID, FollowingID: b.ID}); err != nil {
			return err
		}
	}
	return nil
}

func published(writings []models.Writing) []models.Writing {
	out := make([]models.Writing, 0, len(writings))
	for _, w := range writings {
		if w.IsPublished() {
			out = append(out, w)
		}
	}
	return out
}

func (s *Seeder) seedEngagement(users []models.User, posts []models.Post, writings []models.Writing, count int) error {
	if len(users) == 0 {
		return nil
	}
	live := published(writings)
	for i := 0; i < count; i++ {
		user := users[s.rng.Intn(len(users))]
		if len(posts) > 0 {
			post := posts[s.rng.Intn(len(posts))]
			if err := s.insertIgnore(&models.Like{UserID: user.ID, PostID: post.ID}); err != nil {
				return err
			}
			if s.rng.Float32() < 0.2 {
				if err := s.insertIgnore(&models.SavedPost{UserID: user.ID, PostID: post.ID}); err != nil {
					return err
				}
			}
		}
		if len(live) > 0 {
			w := live[s.rng.Intn(len(live))]
			if err := s.insertIgnore(&models.WritingLike{WritingID: w.ID, UserID: user.ID}); err != nil {
				return err
			}
			if s.rng.Float32() < 0.25 {
				if err := s.insertIgnore(&models.WritingBookmark{WritingID: w.ID, UserID: user.ID}); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func (s *Seeder) seedComments(users []models.User, posts []models.Post, count int) error {
	if len(users) == 0 || len(posts) == 0 {
		return nil
	}
	for i := 0; i < count; i++ {
		user := users[s.rng.Intn(len(users))]
		post := posts[s.rng.Intn(len(posts))]
		comment := models.Comment{
			PostID:   post.ID,
			UserID:   user.ID,
			Username: user.Name,
			Text:     gofakeit.HipsterSentence(),
		}
		comment.CreatedAt = gofakeit.DateRange(post.CreatedAt, time.Now()).UTC()
		comment.UpdatedAt = comment.CreatedAt
		if err := s.db.Create(&comment).Error; err != nil {
			return fmt.Errorf("failed to create comment: %w", err)
		}
	}
	logger.Log.Info("Created post comments", zap.Int("count", count))
	return nil
}

func (s *Seeder) seedWritingComments(users []models.User, writings []models.Writing, count int) error {
	live := published(writings)
	if len(users) == 0 || len(live) == 0 {
		return nil
	}
	for i := 0; i < count; i++ {
		user := users[s.rng.Intn(len(users))]
		w := live[s.rng.Intn(len(live))]
		createdAt := gofakeit.DateRange(w.CreatedAt, time.Now()).UTC()
		comment := models.WritingComment{
			WritingID: w.ID,
			UserID:    user.ID,
			Username:  user.Name,
			Text:      gofakeit.HipsterSentence(),
		}
		comment.CreatedAt = createdAt
		comment.UpdatedAt = createdAt

		for r := s.rng.Intn(3); r > 0; r-- {
			replier := users[s.rng.Intn(len(users))]
			comment.AddReply(replier.ID, replier.Name, gofakeit.HipsterSentence(), gofakeit.DateRange(createdAt, time.Now()).UTC())
		}
		for r := s.rng.Intn(4); r > 0; r-- {
			reactor := users[s.rng.Intn(len(users))]
			emoji := emojis[s.rng.Intn(len(emojis))]
			if !comment.ToggleReaction(reactor.ID, emoji, createdAt) {
				// Picked the same pair twice; keep it.
				comment.ToggleReaction(reactor.ID, emoji, createdAt)
			}
		}

		if err := s.db.Create(&comment).Error; err != nil {
			return fmt.Errorf("failed to create writing comment: %w", err)
		}
	}
	logger.Log.Info("Created writing comments", zap.Int("count", count))
	return nil
}
