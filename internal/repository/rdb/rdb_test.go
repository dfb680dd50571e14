package rdb

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"yatube/internal/model"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := Open(Options{Driver: "sqlite", DSN: MemoryDSN(uuid.NewString())})
	require.NoError(t, err)
	t.Cleanup(func() { _ = Close(db) })
	return db
}

type fixture struct {
	db     *gorm.DB
	users  *UserRepository
	groups *GroupRepository
	posts  *PostRepository
	outbox *OutboxRepository
}

func newFixture(t *testing.T) *fixture {
	db := newTestDB(t)
	return &fixture{
		db:     db,
		users:  &UserRepository{DB: db},
		groups: &GroupRepository{DB: db},
		posts:  &PostRepository{DB: db},
		outbox: &OutboxRepository{DB: db},
	}
}

func (f *fixture) user(t *testing.T, name string) *model.User {
	t.Helper()
	u := &model.User{Username: name, Password: "x"}
	require.NoError(t, f.users.Create(context.Background(), u))
	return u
}

func (f *fixture) group(t *testing.T, slug string) *model.Group {
	t.Helper()
	g := &model.Group{Title: "Group " + slug, Slug: slug}
	require.NoError(t, f.groups.Create(context.Background(), g))
	return g
}

func (f *fixture) post(t *testing.T, author *model.User, group *model.Group, text string, at time.Time) *model.Post {
	t.Helper()
	p := &model.Post{Text: text, AuthorID: author.ID, PubDate: at}
	if group != nil {
		p.GroupID = &group.ID
	}
	require.NoError(t, f.posts.Create(context.Background(), p))
	return p
}

func TestPostListOrderingAndPaging(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	author := f.user(t, "leo")
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 12; i++ {
		f.post(t, author, nil, fmt.Sprintf("post %02d", i), base.Add(time.Duration(i)*time.Minute))
	}

	total, err := f.posts.Count(ctx, PostFilter{})
	require.NoError(t, err)
	assert.EqualValues(t, 12, total)

	first, err := f.posts.List(ctx, PostFilter{}, 0, 10)
	require.NoError(t, err)
	require.Len(t, first, 10)
	assert.Equal(t, "post 11", first[0].Text)
	assert.Equal(t, "post 02", first[9].Text)
	assert.Equal(t, "leo", first[0].Author.Username)
	for i := 1; i < len(first); i++ {
		assert.False(t, first[i].PubDate.After(first[i-1].PubDate))
	}

	second, err := f.posts.List(ctx, PostFilter{}, 10, 10)
	require.NoError(t, err)
	require.Len(t, second, 2)
	assert.Equal(t, "post 00", second[1].Text)
}

func TestPostListSameTimestampFallsBackToID(t *testing.T) {
	f := newFixture(t)
	author := f.user(t, "leo")
	at := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	a := f.post(t, author, nil, "a", at)
	b := f.post(t, author, nil, "b", at)

	list, err := f.posts.List(context.Background(), PostFilter{}, 0, 10)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, b.ID, list[0].ID)
	assert.Equal(t, a.ID, list[1].ID)
}

func TestPostFilters(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	leo, anna := f.user(t, "leo"), f.user(t, "anna")
	cats, dogs := f.group(t, "cats"), f.group(t, "dogs")
	now := time.Now().UTC().Truncate(time.Second)

	f.post(t, leo, cats, "leo cats", now)
	f.post(t, anna, cats, "anna cats", now.Add(time.Second))
	f.post(t, anna, dogs, "anna dogs", now.Add(2*time.Second))
	f.post(t, anna, nil, "anna none", now.Add(3*time.Second))

	inCats, err := f.posts.List(ctx, PostFilter{GroupID: cats.ID}, 0, 10)
	require.NoError(t, err)
	require.Len(t, inCats, 2)
	for _, p := range inCats {
		require.NotNil(t, p.Group)
		assert.Equal(t, "cats", p.Group.Slug)
	}

	n, err := f.posts.CountByAuthor(ctx, anna.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)

	byAnna, err := f.posts.List(ctx, PostFilter{AuthorID: anna.ID}, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, "anna none", byAnna[0].Text)
	assert.Nil(t, byAnna[0].Group)
}

func TestPostCreateAndUpdateWriteOutbox(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	leo := f.user(t, "leo")
	cats := f.group(t, "cats")
	p := f.post(t, leo, cats, "Hello", time.Time{})
	assert.False(t, p.PubDate.IsZero())

	created, err := f.posts.FindByID(ctx, p.ID)
	require.NoError(t, err)

	p.Text = "Hello again"
	p.GroupID = nil
	p.Image = "posts/x.jpg"
	require.NoError(t, f.posts.Update(ctx, p))

	got, err := f.posts.FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Hello again", got.Text)
	assert.Nil(t, got.GroupID)
	assert.Equal(t, "posts/x.jpg", got.Image)
	assert.Equal(t, leo.ID, got.AuthorID)
	assert.True(t, created.PubDate.Equal(got.PubDate))

	rows, err := f.outbox.List(ctx, 10, 3)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, model.EventPostCreated, rows[0].EventType)
	assert.Equal(t, model.EventPostEdited, rows[1].EventType)
	assert.Equal(t, p.ID, rows[1].PostID)
	assert.Contains(t, rows[1].Payload, `"preview":"Hello again..."`)
}

func TestFindMissing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.posts.FindByID(ctx, 42)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	_, err = f.groups.FindBySlug(ctx, "nope")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	_, err = f.users.FindByUsername(ctx, "nobody")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestGroupListOrderedByTitle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.groups.Create(ctx, &model.Group{Title: "Zebras", Slug: "z"}))
	require.NoError(t, f.groups.Create(ctx, &model.Group{Title: "Ants", Slug: "a"}))

	list, err := f.groups.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Ants", list[0].Title)
}

func TestGroupDeletePolicies(t *testing.T) {
	ctx := context.Background()

	t.Run("restrict", func(t *testing.T) {
		f := newFixture(t)
		g := f.group(t, "cats")
		f.post(t, f.user(t, "leo"), g, "p", time.Time{})
		_, err := f.groups.Delete(ctx, "cats", model.PolicyRestrict)
		assert.ErrorIs(t, err, ErrInUse)
		_, err = f.groups.FindBySlug(ctx, "cats")
		assert.NoError(t, err)
	})

	t.Run("set_null", func(t *testing.T) {
		f := newFixture(t)
		g := f.group(t, "cats")
		p := f.post(t, f.user(t, "leo"), g, "p", time.Time{})
		n, err := f.groups.Delete(ctx, "cats", model.PolicySetNull)
		require.NoError(t, err)
		assert.EqualValues(t, 1, n)
		got, err := f.posts.FindByID(ctx, p.ID)
		require.NoError(t, err)
		assert.Nil(t, got.GroupID)
	})

	t.Run("cascade", func(t *testing.T) {
		f := newFixture(t)
		g := f.group(t, "cats")
		p := f.post(t, f.user(t, "leo"), g, "p", time.Time{})
		_, err := f.groups.Delete(ctx, "cats", model.PolicyCascade)
		require.NoError(t, err)
		_, err = f.posts.FindByID(ctx, p.ID)
		assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	})

	t.Run("missing", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.groups.Delete(ctx, "ghost", model.PolicyCascade)
		assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	})
}

func TestUserDeletePolicies(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	leo := f.user(t, "leo")
	f.post(t, leo, nil, "one", time.Time{})
	f.post(t, leo, nil, "two", time.Time{})

	_, err := f.users.Delete(ctx, leo.ID, model.PolicyRestrict)
	assert.ErrorIs(t, err, ErrInUse)

	n, err := f.users.Delete(ctx, leo.ID, model.PolicyCascade)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	exists, err := f.users.ExistsByUsername(ctx, "leo")
	require.NoError(t, err)
	assert.False(t, exists)
	total, err := f.posts.Count(ctx, PostFilter{})
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestOutboxRetryBookkeeping(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	leo := f.user(t, "leo")
	f.post(t, leo, nil, "a", time.Time{})
	f.post(t, leo, nil, "b", time.Time{})

	rows, err := f.outbox.List(ctx, 10, 2)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	require.NoError(t, f.outbox.SuccessUpdate(ctx, rows[0].ID))
	require.NoError(t, f.outbox.RetryUpdate(ctx, rows[1].ID))

	rows, err = f.outbox.List(ctx, 10, 2)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, model.OutboxFailed, rows[0].Status)
	assert.Equal(t, 1, rows[0].Retry)

	require.NoError(t, f.outbox.RetryUpdate(ctx, rows[0].ID))
	rows, err = f.outbox.List(ctx, 10, 2)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestHealth(t *testing.T) {
	db := newTestDB(t)
	stats := Health(context.Background(), db)
	assert.Equal(t, "up", stats["status"])
}
