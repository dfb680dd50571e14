package handler

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"yatube/internal/form"
	"yatube/internal/middleware"
	"yatube/internal/model"
	"yatube/internal/service"
)

type PostHandler struct {
	posts  *service.PostService
	groups *service.GroupService
	images form.ImageSaver
}

func NewPostHandler(posts *service.PostService, groups *service.GroupService, images form.ImageSaver) *PostHandler {
	return &PostHandler{posts: posts, groups: groups, images: images}
}

// Index is the global feed.
func (h *PostHandler) Index(c *gin.Context) {
	page, err := h.posts.ListAll(c.Request.Context(), c.Query("page"))
	if err != nil {
		serverError(c, err)
		return
	}
	renderPage(c, http.StatusOK, "posts/index.html", gin.H{"page_obj": page})
}

func (h *PostHandler) GroupPosts(c *gin.Context) {
	group, page, err := h.posts.ListByGroup(c.Request.Context(), c.Param("slug"), c.Query("page"))
	if errors.Is(err, service.ErrGroupNotFound) {
		NotFound(c)
		return
	}
	if err != nil {
		serverError(c, err)
		return
	}
	renderPage(c, http.StatusOK, "posts/group_list.html", gin.H{"group": group, "page_obj": page})
}

func (h *PostHandler) Profile(c *gin.Context) {
	author, page, err := h.posts.ListByAuthor(c.Request.Context(), c.Param("username"), c.Query("page"))
	if errors.Is(err, service.ErrUserNotFound) {
		NotFound(c)
		return
	}
	if err != nil {
		serverError(c, err)
		return
	}
	renderPage(c, http.StatusOK, "posts/profile.html", gin.H{
		"author":     author,
		"page_obj":   page,
		"post_count": page.Total,
	})
}

func (h *PostHandler) Detail(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		NotFound(c)
		return
	}
	post, count, err := h.posts.Get(c.Request.Context(), id)
	if errors.Is(err, service.ErrPostNotFound) {
		NotFound(c)
		return
	}
	if err != nil {
		serverError(c, err)
		return
	}
	renderPage(c, http.StatusOK, "posts/post_detail.html", gin.H{
		"post":       post,
		"post_count": count,
		"is_author":  post.IsAuthor(middleware.CurrentUser(c)),
	})
}

// Create serves the empty form on GET and stores a new post on POST.
func (h *PostHandler) Create(c *gin.Context) {
	user := middleware.CurrentUser(c)
	if c.Request.Method != http.MethodPost {
		h.renderForm(c, http.StatusOK, &form.PostForm{Errors: form.Errors{}}, nil)
		return
	}

	f := bindPostForm(c)
	ok, err := f.Valid(c.Request.Context(), h.groups, h.images)
	if err != nil {
		serverError(c, err)
		return
	}
	if !ok {
		h.renderForm(c, http.StatusOK, f, nil)
		return
	}

	post := &model.Post{}
	f.Apply(post)
	if err := h.posts.Create(c.Request.Context(), user, post); err != nil {
		h.removeImage(c, f.ImagePath())
		serverError(c, err)
		return
	}
	c.Redirect(http.StatusFound, "/profile/"+url.PathEscape(user.Username)+"/")
}

// Edit lets the author change text, group and image. Anyone else is sent
// back to the post unchanged.
func (h *PostHandler) Edit(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		NotFound(c)
		return
	}
	post, err := h.posts.Find(c.Request.Context(), id)
	if errors.Is(err, service.ErrPostNotFound) {
		NotFound(c)
		return
	}
	if err != nil {
		serverError(c, err)
		return
	}
	detail := "/posts/" + strconv.FormatUint(post.ID, 10) + "/"
	if !post.IsAuthor(middleware.CurrentUser(c)) {
		c.Redirect(http.StatusFound, detail)
		return
	}

	if c.Request.Method != http.MethodPost {
		h.renderForm(c, http.StatusOK, form.PostFormFrom(post), post)
		return
	}

	f := bindPostForm(c)
	ok, err = f.Valid(c.Request.Context(), h.groups, h.images)
	if err != nil {
		serverError(c, err)
		return
	}
	if !ok {
		h.renderForm(c, http.StatusOK, f, post)
		return
	}
	oldImage := post.Image
	f.Apply(post)
	if err := h.posts.Update(c.Request.Context(), post); err != nil {
		h.removeImage(c, f.ImagePath())
		serverError(c, err)
		return
	}
	if f.ImagePath() != "" && oldImage != f.ImagePath() {
		h.removeImage(c, oldImage)
	}
	c.Redirect(http.StatusFound, detail)
}

// renderForm shows the create form, or the edit form when post is set.
func (h *PostHandler) renderForm(c *gin.Context, status int, f *form.PostForm, post *model.Post) {
	groups, err := h.groups.List(c.Request.Context())
	if err != nil {
		serverError(c, err)
		return
	}
	data := gin.H{"form": f, "groups": groups, "is_edit": post != nil}
	if post != nil {
		data["post_id"] = post.ID
	}
	renderPage(c, status, "posts/create_post.html", data)
}

// removeImage drops a stored file that no post refers to any more.
func (h *PostHandler) removeImage(c *gin.Context, rel string) {
	if rel == "" {
		return
	}
	if err := h.images.Remove(rel); err != nil {
		zerolog.Ctx(c.Request.Context()).Warn().Err(err).Str("image", rel).Msg("remove image")
	}
}

func bindPostForm(c *gin.Context) *form.PostForm {
	f := &form.PostForm{
		Text:  c.PostForm("text"),
		Group: c.PostForm("group"),
	}
	if fh, err := c.FormFile("image"); err == nil {
		f.Image = fh
	}
	return f
}
