package form

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"strconv"
	"strings"

	"yatube/internal/model"
	"yatube/internal/pkg"
	"yatube/internal/service"
)

// GroupLookup resolves the group a post is filed under. An unknown id must
// be reported as service.ErrGroupNotFound.
type GroupLookup interface {
	Get(ctx context.Context, id uint64) (*model.Group, error)
}

// ImageSaver stores an uploaded image and returns its media path. Remove
// deletes a path Save returned.
type ImageSaver interface {
	Save(fh *multipart.FileHeader) (string, error)
	Remove(rel string) error
}

// PostForm is the create/edit form. Group holds the raw submitted id.
type PostForm struct {
	Text  string                `form:"text" validate:"required"`
	Group string                `form:"group" validate:"omitempty,numeric"`
	Image *multipart.FileHeader `form:"image" validate:"-"`

	Errors Errors `form:"-" validate:"-"`

	groupID   *uint64
	imagePath string
}

// PostFormFrom pre-populates the form from an existing post.
func PostFormFrom(p *model.Post) *PostForm {
	f := &PostForm{Text: p.Text, Errors: Errors{}}
	if p.GroupID != nil {
		f.Group = strconv.FormatUint(*p.GroupID, 10)
	}
	return f
}

// Valid checks text and group first and only then stores the image, so a
// rejected submission leaves nothing behind. err is set for failures that
// are not the user's fault.
func (f *PostForm) Valid(ctx context.Context, groups GroupLookup, images ImageSaver) (bool, error) {
	f.Errors = Errors{}
	f.Text = strings.TrimSpace(f.Text)
	f.Group = strings.TrimSpace(f.Group)
	collect(f, f.Errors)

	if f.Group != "" && !f.Errors.Has("group") {
		id, err := strconv.ParseUint(f.Group, 10, 64)
		if err != nil {
			f.Errors.Add("group", MsgInvalidChoice)
		} else if _, err := groups.Get(ctx, id); errors.Is(err, service.ErrGroupNotFound) {
			f.Errors.Add("group", MsgInvalidChoice)
		} else if err != nil {
			return false, fmt.Errorf("look up group %d: %w", id, err)
		} else {
			f.groupID = &id
		}
	}
	if f.Errors.Any() {
		return false, nil
	}

	if f.Image != nil {
		path, err := images.Save(f.Image)
		if errors.Is(err, pkg.ErrInvalidImage) {
			f.Errors.Add("image", MsgInvalidImage)
			return false, nil
		}
		if err != nil {
			return false, err
		}
		f.imagePath = path
	}
	return true, nil
}

// Apply copies the cleaned values onto p. The image is replaced only when
// a new one was uploaded.
func (f *PostForm) Apply(p *model.Post) {
	p.Text = f.Text
	p.GroupID = f.groupID
	if f.imagePath != "" {
		p.Image = f.imagePath
	}
}

// ImagePath is the media path of the image stored by Valid, if any.
func (f *PostForm) ImagePath() string { return f.imagePath }

// SelectedGroup is the group id as the template compares it.
func (f *PostForm) SelectedGroup() string { return f.Group }
