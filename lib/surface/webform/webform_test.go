package webform

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"blogmigrate/lib/surface"

	"github.com/stretchr/testify/require"
)

var testLocators = surface.LocatorTable{
	LoginEmail:    "input[name=email]",
	LoginPassword: "input[name=password]",
	LoginSubmit:   "button.login",
	AuthorSelect:  "select[name=author]",
	TitleField:    "input[name=title]",
}

const loginPage = `<html><body>
<form action="/login" method="POST">
	<input type="text" name="email" />
	<input type="password" name="password" />
	<button class="login" type="submit">Log in</button>
</form>
</body></html>`

const editorPage = `<html><body>
<h1 class="welcome">Editor</h1>
<form action="/posts" method="POST">
	<input type="text" name="title" value="" />
	<select name="author">
		<option value="7">Jane Doe</option>
		<option value="9">Editorial Team</option>
	</select>
</form>
</body></html>`

func newTestServer(t *testing.T) *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(loginPage))
	})
	mux.HandleFunc("/login", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, r.ParseForm())
		if r.PostForm.Get("email") != "admin@example.com" || r.PostForm.Get("password") != "hunter2" {
			http.Error(w, "bad credentials", http.StatusForbidden)
			return
		}
		w.Write([]byte(editorPage))
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func TestLogin(t *testing.T) {
	server := newTestServer(t)
	ctx := context.Background()

	client, err := NewClient(ctx, ClientOptions{BaseURL: server.URL})
	require.NoError(t, err)
	require.NoError(t, client.Open(ctx, "/"))
	require.NoError(t, client.Login(ctx, testLocators, "admin@example.com", "hunter2"))

	// the post-login page is now current
	_, err = client.Root().FindElement(ctx, "h1.welcome")
	require.NoError(t, err)
}

func TestLoginBadCredentials(t *testing.T) {
	server := newTestServer(t)
	ctx := context.Background()

	client, err := NewClient(ctx, ClientOptions{BaseURL: server.URL})
	require.NoError(t, err)
	require.NoError(t, client.Open(ctx, "/"))
	require.Error(t, client.Login(ctx, testLocators, "admin@example.com", "wrong"))
}

func TestElementsOnCurrentPage(t *testing.T) {
	server := newTestServer(t)
	ctx := context.Background()

	client, err := NewClient(ctx, ClientOptions{BaseURL: server.URL})
	require.NoError(t, err)
	require.NoError(t, client.Open(ctx, "/"))
	require.NoError(t, client.Login(ctx, testLocators, "admin@example.com", "hunter2"))
	root := client.Root()

	_, err = root.FindElement(ctx, "div.missing")
	var surfaceErr *surface.Error
	require.ErrorAs(t, err, &surfaceErr)
	require.Equal(t, surface.ErrorElementNotFound, surfaceErr.Kind)

	author, err := root.FindElement(ctx, testLocators.AuthorSelect)
	require.NoError(t, err)
	labels, err := author.OptionLabels(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"Jane Doe", "Editorial Team"}, labels)

	require.Error(t, author.SelectByLabel(ctx, "Nobody"))
	require.NoError(t, author.SelectByLabel(ctx, "Jane Doe"))
	selected, err := author.Value(ctx)
	require.NoError(t, err)
	require.Equal(t, "7", selected)

	title, err := root.FindElement(ctx, testLocators.TitleField)
	require.NoError(t, err)
	require.NoError(t, title.Type(ctx, "Summer Reunion 1987"))
	typed, err := title.Value(ctx)
	require.NoError(t, err)
	require.Equal(t, "Summer Reunion 1987", typed)

	form, err := root.SwitchToActiveChild(ctx)
	require.NoError(t, err)
	_, err = form.FindElement(ctx, testLocators.AuthorSelect)
	require.NoError(t, err)
}
