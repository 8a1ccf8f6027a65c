package echoapi_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/csbssync/portal/core"
	"github.com/csbssync/portal/core/announcement"
	"github.com/csbssync/portal/core/material"
	"github.com/csbssync/portal/core/study"
	testutil "github.com/csbssync/portal/tests"
)

func Test_home(t *testing.T) {
	app := setup(t)
	req, rec := newRequest(http.MethodGet, "/")
	app.do(req, rec)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Welcome to CSBS SYNC API!", rec.Body.String())
}

func Test_helloApi(t *testing.T) {
	app := setup(t)

	req, rec := newRequest(http.MethodGet, "/api/hello")
	app.do(req, rec)
	require.Equal(t, http.StatusOK, rec.Code)
	var res map[string]string
	unmarshal(t, rec, &res)
	assert.Equal(t, "Hello from the CSBS backend", res["message"])
	assert.NotEmpty(t, res["time"])

	req, rec = newRequest(http.MethodPost, "/api/hello", []byte(`{"ping":1}`))
	checkCodeAndData(t, httpTest{wantCode: http.StatusOK, wantData: []byte(`{"received":{"ping":1},"status":"Success"}`)}, app.do(req, rec))

	req, rec = newRequest(http.MethodPost, "/api/hello", []byte(`nope`))
	assert.Equal(t, http.StatusBadRequest, app.do(req, rec).Code)
}

func Test_studyApi(t *testing.T) {
	app := setup(t)

	tests := []httpTest{
		{name: "empty list", method: http.MethodGet, path: "/api/study", wantCode: http.StatusOK, wantData: []byte(`{"success":true,"topics":[]}`)},
		{
			name:     "missing staff",
			method:   http.MethodPost,
			path:     "/api/study",
			body:     []byte(`{"subject":"Math","topic":"Integrals"}`),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, httpErr{Message: "staff: this field cannot be blank", Errors: map[string]string{"staff": "this field cannot be blank"}}),
		},
		{name: "create", method: http.MethodPost, path: "/api/study", body: []byte(`{"subject":"Math","staff":"Dr. K","topic":"Integrals"}`), wantCode: http.StatusCreated},
		{name: "delete unknown", method: http.MethodDelete, path: "/api/study/unknown", wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Message: "Topic not found"})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(tt.method, tt.path, tt.body)
			checkCodeAndData(t, tt, app.do(req, rec))
		})
	}

	topics, err := app.repos.Topics.QueryAllTopics(context.Background())
	require.NoError(t, err)
	require.Len(t, topics, 1)

	req, rec := newRequest(http.MethodGet, "/api/study")
	checkCodeAndData(t, httpTest{wantCode: http.StatusOK, wantData: marchallObj(t, map[string]interface{}{"success": true, "topics": []study.Topic{topics[0]}})}, app.do(req, rec))

	req, rec = newRequest(http.MethodDelete, "/api/study/"+topics[0].ID)
	checkCodeAndData(t, httpTest{wantCode: http.StatusOK, wantData: []byte(`{"success":true,"message":"Deleted successfully"}`)}, app.do(req, rec))
}

func Test_materialApi(t *testing.T) {
	app := setup(t)

	t.Run("add by link", func(t *testing.T) {
		req, rec := newRequest(http.MethodPost, "/api/materials", []byte(`{"matname":"Notes","subject":"Math","name":"alice","link":"https://cdn.test/notes.pdf","format":"PDF"}`))
		app.do(req, rec)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var res struct {
			Message string            `json:"message"`
			Data    material.Material `json:"data"`
		}
		unmarshal(t, rec, &res)
		assert.Equal(t, "Material added successfully", res.Message)
		assert.Equal(t, "pdf", res.Data.Format)
		assert.False(t, res.Data.UploadDate.IsZero())
	})

	t.Run("upload missing fields", func(t *testing.T) {
		req, rec := newMultipartRequest(t, "/api/upload", map[string]string{"materialName": "Slides"})
		checkCodeAndData(t, httpTest{wantCode: http.StatusBadRequest, wantData: marchallObj(t, httpErr{Message: "Missing required fields!"})}, app.do(req, rec))
	})

	t.Run("upload", func(t *testing.T) {
		req, rec := newMultipartRequest(t, "/api/upload",
			map[string]string{"username": "bob", "materialName": "Slides", "subject": "Physics", "uploadDate": "2025-01-05"},
			formFile{field: "file", name: "week1.PPTX", contentType: "application/vnd.ms-powerpoint", content: []byte("slides")},
		)
		app.do(req, rec)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var res struct {
			Message string            `json:"message"`
			URL     string            `json:"url"`
			Data    material.Material `json:"data"`
		}
		unmarshal(t, rec, &res)
		assert.Equal(t, "File uploaded successfully!", res.Message)
		assert.Equal(t, "https://files.test/materials/week1.PPTX", res.URL)
		assert.Equal(t, res.URL, res.Data.Link)
		assert.Equal(t, "pptx", res.Data.Format)
		assert.Equal(t, "bob", res.Data.Name)
		assert.Equal(t, "2025-01-05", core.DateOf(res.Data.UploadDate).String())
	})

	mats, err := app.repos.Materials.QueryAllMaterials(context.Background())
	require.NoError(t, err)
	require.Len(t, mats, 2)

	req, rec := newRequest(http.MethodGet, "/api/materials")
	checkCodeAndData(t, httpTest{wantCode: http.StatusOK, wantData: marchallObj(t, map[string]interface{}{"success": true, "data": mats})}, app.do(req, rec))

	tests := []httpTest{
		{name: "missing id", body: []byte(`{}`), wantCode: http.StatusBadRequest, wantData: marchallObj(t, httpErr{Message: "Missing ID"})},
		{name: "unknown id", body: []byte(`{"id":"unknown"}`), wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Message: "Material not found"})},
		{name: "delete", body: []byte(`{"id":"` + mats[0].ID + `"}`), wantCode: http.StatusOK, wantData: []byte(`{"success":true,"message":"Material deleted"}`)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(http.MethodPost, "/api/materials/delete", tt.body)
			checkCodeAndData(t, tt, app.do(req, rec))
		})
	}
}

func Test_announcementApi(t *testing.T) {
	app := setup(t)

	t.Run("invalid category", func(t *testing.T) {
		req, rec := newMultipartRequest(t, "/api/announcements", map[string]string{"topic": "Fest", "category": "Gossip"})
		app.do(req, rec)
		assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
	})

	t.Run("defaults", func(t *testing.T) {
		req, rec := newMultipartRequest(t, "/api/announcements", map[string]string{"topic": "Exam week", "details": "Room 4"})
		app.do(req, rec)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		var res struct {
			Announcement announcement.Announcement `json:"announcement"`
		}
		unmarshal(t, rec, &res)
		assert.Equal(t, announcement.CategoryGeneral, res.Announcement.Category)
		assert.Equal(t, "Admin", res.Announcement.AddedBy)
		assert.Empty(t, res.Announcement.ImageURL)
	})

	t.Run("with image", func(t *testing.T) {
		req, rec := newMultipartRequest(t, "/api/announcements",
			map[string]string{"topic": "Fest", "category": "Events", "addedBy": "Club"},
			formFile{field: "image", name: "fest.jpg", contentType: "image/jpeg", content: []byte{0xff, 0xd8}},
		)
		app.do(req, rec)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		var res struct {
			Announcement announcement.Announcement `json:"announcement"`
		}
		unmarshal(t, rec, &res)
		assert.Equal(t, "https://files.test/announcements/fest.jpg", res.Announcement.ImageURL)
	})

	anns, err := app.repos.Announcements.QueryAllAnnouncements(context.Background())
	require.NoError(t, err)
	require.Len(t, anns, 2)
	assert.Equal(t, "Fest", anns[0].Topic)

	req, rec := newRequest(http.MethodGet, "/api/announcements")
	checkCodeAndData(t, httpTest{wantCode: http.StatusOK, wantData: marchallObj(t, map[string]interface{}{"success": true, "announcements": anns})}, app.do(req, rec))

	tests := []httpTest{
		{name: "missing id", path: "/api/announcements", wantCode: http.StatusBadRequest, wantData: marchallObj(t, httpErr{Message: "Missing announcement ID"})},
		{name: "unknown id", path: "/api/announcements?id=unknown", wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Message: "Announcement not found"})},
		{name: "delete", path: "/api/announcements?id=" + anns[1].ID, wantCode: http.StatusOK, wantData: []byte(`{"success":true}`)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(http.MethodDelete, tt.path)
			checkCodeAndData(t, tt, app.do(req, rec))
		})
	}
}

func Test_noticeApi(t *testing.T) {
	app := setup(t)
	send := func(body string) *httpTest {
		return &httpTest{method: http.MethodPost, path: "/api/send", body: []byte(body)}
	}

	t.Run("missing message", func(t *testing.T) {
		tt := send(`{"subject":"Exam"}`)
		tt.wantCode = http.StatusBadRequest
		req, rec := newRequest(tt.method, tt.path, tt.body)
		checkCodeAndData(t, *tt, app.do(req, rec))
	})

	t.Run("no recipients", func(t *testing.T) {
		tt := send(`{"subject":"Exam","message":"Room 4"}`)
		tt.wantCode = http.StatusOK
		tt.wantData = []byte(`{"success":true,"message":"No users with email1 found, no emails sent","results":[]}`)
		req, rec := newRequest(tt.method, tt.path, tt.body)
		checkCodeAndData(t, *tt, app.do(req, rec))
	})

	testutil.CreateUser(t, app.repos.Users, "alice", "alice@test.test", "alice@notify.test", "", "")
	testutil.CreateUser(t, app.repos.Users, "bob", "bob@test.test", "", "", "")

	t.Run("sent", func(t *testing.T) {
		tt := send(`{"subject":"Exam","message":"Room 4"}`)
		tt.wantCode = http.StatusOK
		tt.wantData = []byte(`{"success":true,"message":"Attempted to send emails to 1 users","results":[{"email":"alice@notify.test","status":202}]}`)
		req, rec := newRequest(tt.method, tt.path, tt.body)
		checkCodeAndData(t, *tt, app.do(req, rec))

		sent := app.mail.SentMessages()
		require.Len(t, sent, 1)
		assert.Equal(t, "Exam", sent[0].Subject)
		assert.Contains(t, sent[0].TextContent, "Hello alice")
	})
}
