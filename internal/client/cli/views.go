package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/catlog/internal/client/client"
	"github.com/dmitrijs2005/catlog/internal/client/models"
	"github.com/dmitrijs2005/catlog/internal/client/router"
)

var errInvalidID = errors.New("entry id must be a positive number")

// getSimpleText, getTextWithDefault and getPassword are indirections used to
// facilitate testing.
var (
	getSimpleText      = GetSimpleText
	getTextWithDefault = GetTextWithDefault
	getPassword        = GetPassword
)

// Navigate resolves path through the router and renders the screen it ends
// on.
func (a *App) Navigate(ctx context.Context, path string) error {
	res, err := a.router.Navigate(ctx, path)
	if err != nil {
		return err
	}
	return a.render(ctx, res)
}

func (a *App) render(ctx context.Context, res router.Resolved) error {
	switch res.Route.Pattern {
	case router.PathHome:
		return a.viewHome(ctx)
	case router.PathLogin:
		return a.viewLogin(ctx, res)
	case router.PathRegister:
		return a.viewRegister(ctx)
	case router.PathEntryList:
		return a.viewList(ctx)
	case router.PathEntryNew:
		return a.viewCreate(ctx)
	case router.PathEntryEdit:
		return a.viewEdit(ctx, res.Param("id"))
	}
	return fmt.Errorf("no view for %s", res.Route.Pattern)
}

// guarded runs action once the guard allows path, asking for a login first
// if it does not.
func (a *App) guarded(ctx context.Context, path string, action func() error) error {
	res, err := a.router.Navigate(ctx, path)
	if err != nil {
		return err
	}
	if res.Denied {
		if err := a.login(ctx, true); err != nil {
			return err
		}
		if res, err = a.router.Navigate(ctx, path); err != nil {
			return err
		}
		if res.Denied {
			return client.ErrUnauthorized
		}
	}
	return action()
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: %q", errInvalidID, s)
	}
	return id, nil
}

func (a *App) userID() *int64 {
	s := a.sessions.Current()
	if s == nil {
		return nil
	}
	id, ok := s.ID.Int64()
	if !ok {
		return nil
	}
	return &id
}

func (a *App) viewHome(ctx context.Context) error {
	name := "there"
	if s := a.sessions.Current(); s != nil {
		name = s.Username
	}
	fmt.Fprintf(a.out, "Hello, %s! Try 'list' to browse cat entries or 'create' to add one.\n", name)
	return nil
}

func (a *App) viewLogin(ctx context.Context, res router.Resolved) error {
	if err := a.login(ctx, res.Denied); err != nil {
		return err
	}
	next := router.PathHome
	if res.Denied && res.Requested != router.LoginPath {
		next = res.Requested
	}
	return a.Navigate(ctx, next)
}

func (a *App) login(ctx context.Context, denied bool) error {
	if denied {
		fmt.Fprintln(a.out, "Please log in to continue.")
	}
	username, err := getSimpleText(a.reader, "Enter username", a.out)
	if err != nil {
		return err
	}
	password, err := getPassword(a.out)
	if err != nil {
		return err
	}

	sess, err := a.sessions.Login(ctx, username, password)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Welcome, %s!\n", sess.Username)
	return nil
}

func (a *App) viewRegister(ctx context.Context) error {
	username, err := getSimpleText(a.reader, "Choose a username", a.out)
	if err != nil {
		return err
	}
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}
	password, err := getPassword(a.out)
	if err != nil {
		return err
	}

	sess, err := a.sessions.Register(ctx, username, email, password)
	if err != nil {
		return err
	}

	has, err := a.sessions.HasPersistedToken(ctx)
	if err != nil {
		return err
	}
	if has {
		fmt.Fprintf(a.out, "Account created, welcome, %s!\n", sess.Username)
		return a.Navigate(ctx, router.PathHome)
	}
	fmt.Fprintf(a.out, "Account %s created. Please log in.\n", sess.Username)
	return a.Navigate(ctx, router.PathLogin)
}

func (a *App) viewList(ctx context.Context) error {
	list, err := a.entries.FetchAll(ctx)
	if err != nil {
		return err
	}
	if len(list) == 0 {
		fmt.Fprintln(a.out, "No cat entries yet.")
		return nil
	}
	for _, e := range list {
		fmt.Fprintln(a.out, e)
	}
	return nil
}

func (a *App) viewCreate(ctx context.Context) error {
	var in models.CatEntryCreate
	fields := []struct {
		prompt string
		dst    *string
	}{
		{"Cat name", &in.CatName},
		{"Mood", &in.Mood},
		{"Location", &in.Location},
		{"Notes", &in.Notes},
	}
	for _, f := range fields {
		v, err := getSimpleText(a.reader, f.prompt, a.out)
		if err != nil {
			return err
		}
		*f.dst = v
	}
	if err := in.Validate(); err != nil {
		return err
	}

	ref, err := getSimpleText(a.reader, "Image (path or s3://bucket/key, empty to skip)", a.out)
	if err != nil {
		return err
	}
	if ref != "" {
		res, err := a.uploadImage(ctx, ref, 0)
		if err != nil {
			return err
		}
		in.ImageURL = res.ImageURL
	}

	in.CreatedBy = a.userID()
	if _, err := a.entries.Create(ctx, in); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Entry for %s created.\n", in.CatName)
	return nil
}

func (a *App) viewEdit(ctx context.Context, rawID string) error {
	id, err := parseID(rawID)
	if err != nil {
		return err
	}
	e, err := a.entries.FetchByID(ctx, id)
	if err != nil {
		return err
	}

	up := models.UpdateFrom(*e)
	fields := []struct {
		prompt string
		dst    *string
	}{
		{"Cat name", &up.CatName},
		{"Mood", &up.Mood},
		{"Location", &up.Location},
		{"Notes", &up.Notes},
		{"Image URL", &up.ImageURL},
	}
	for _, f := range fields {
		v, err := getTextWithDefault(a.reader, f.prompt, *f.dst, a.out)
		if err != nil {
			return err
		}
		*f.dst = v
	}
	if err := up.Validate(); err != nil {
		return err
	}

	up.ModifiedBy = a.userID()
	if _, err := a.entries.Update(ctx, up); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Entry #%d updated.\n", id)
	return nil
}

// Show prints a single entry.
func (a *App) Show(ctx context.Context, rawID string) error {
	id, err := parseID(rawID)
	if err != nil {
		return err
	}
	return a.guarded(ctx, "/entry/edit/"+rawID, func() error {
		e, err := a.entries.FetchByID(ctx, id)
		if err != nil {
			return err
		}
		var b strings.Builder
		fmt.Fprintf(&b, "Cat:      %s\n", e.CatName)
		fmt.Fprintf(&b, "Mood:     %s\n", e.Mood)
		fmt.Fprintf(&b, "Location: %s\n", e.Location)
		if e.Notes != "" {
			fmt.Fprintf(&b, "Notes:    %s\n", e.Notes)
		}
		if e.ImageURL != "" {
			fmt.Fprintf(&b, "Image:    %s\n", e.ImageURL)
		}
		if e.UpdatedAt != "" {
			fmt.Fprintf(&b, "Updated:  %s\n", e.UpdatedAt)
		}
		fmt.Fprint(a.out, b.String())
		return nil
	})
}

func (a *App) Delete(ctx context.Context, rawID string) error {
	id, err := parseID(rawID)
	if err != nil {
		return err
	}
	return a.guarded(ctx, "/entry/edit/"+rawID, func() error {
		if _, err := a.entries.Remove(ctx, id); err != nil {
			return err
		}
		fmt.Fprintf(a.out, "Entry #%d deleted.\n", id)
		return nil
	})
}

// Upload sends an image for an existing entry.
func (a *App) Upload(ctx context.Context, rawID, ref string) error {
	id, err := parseID(rawID)
	if err != nil {
		return err
	}
	return a.guarded(ctx, "/entry/edit/"+rawID, func() error {
		res, err := a.uploadImage(ctx, ref, id)
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "Uploaded %s (file %s)\n", res.ImageURL, res.FileID)
		return nil
	})
}

func (a *App) uploadImage(ctx context.Context, ref string, entryID int64) (*models.UploadResult, error) {
	img, err := a.images.Open(ctx, ref)
	if err != nil {
		return nil, err
	}
	defer img.Close()

	meta := models.UploadMetadata{CatEntryID: entryID}
	if uid := a.userID(); uid != nil {
		meta.UploadedBy = *uid
	}
	return a.entries.UploadImage(ctx, client.Image{Name: img.Name, Body: img}, meta, "")
}
