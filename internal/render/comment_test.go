package render

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/threaded-comments-api/internal/cursor"
	"github.com/threaded-comments-api/internal/models"
)

func TestCommentPlaceholder(t *testing.T) {
	r := New()
	parent := int64(1)

	out := r.Comment(&models.Comment{
		ID: 2, ArticleID: 1, RootID: 1, ParentID: &parent, Depth: 1,
		Content: "secret", Status: 1, IsDeleted: true,
		CreatedAt: "2024-01-01T00:00:00.000Z", UpdatedAt: "2024-01-01T00:00:01.000Z",
	})

	if out.Content != models.DeletedPlaceholder {
		t.Errorf("Expected placeholder, got %q", out.Content)
	}
	if strings.Contains(out.ContentHTML, "secret") {
		t.Errorf("Deleted content leaked into HTML: %q", out.ContentHTML)
	}
	if out.IsDeleted != 1 {
		t.Errorf("Expected isDeleted 1, got %d", out.IsDeleted)
	}
	if out.ParentID == nil || *out.ParentID != 1 || out.Depth != 1 || out.UpdatedAt != "2024-01-01T00:00:01.000Z" {
		t.Errorf("Expected other fields unchanged, got %+v", out)
	}
}

func TestTreeJSONShape(t *testing.T) {
	r := New()

	root := models.NewCommentNode(&models.Comment{ID: 1, RootID: 1, Content: "root"})
	child := models.NewCommentNode(&models.Comment{ID: 2, RootID: 1, Content: "child", IsDeleted: true})
	root.Children = append(root.Children, child)

	data, err := json.Marshal(r.Tree(root))
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if decoded["parentId"] != nil {
		t.Errorf("Expected null parentId, got %v", decoded["parentId"])
	}
	if decoded["isDeleted"] != float64(0) {
		t.Errorf("Expected isDeleted 0, got %v", decoded["isDeleted"])
	}
	children, ok := decoded["children"].([]interface{})
	if !ok || len(children) != 1 {
		t.Fatalf("Expected one child, got %v", decoded["children"])
	}
	first := children[0].(map[string]interface{})
	if first["content"] != models.DeletedPlaceholder {
		t.Errorf("Expected placeholder in child, got %v", first["content"])
	}
	leaf, ok := first["children"].([]interface{})
	if !ok || len(leaf) != 0 {
		t.Errorf("Expected empty children array on leaf, got %v", first["children"])
	}
}

func TestPageCursor(t *testing.T) {
	r := New()
	next := cursor.Cursor{CreatedAt: "2024-01-01T00:00:00.000Z", ID: 9}

	out := r.Page(&models.CommentPage{Items: []*models.Comment{{ID: 9}}, NextCursor: &next})
	if out.NextCursor != cursor.Encode(next) {
		t.Errorf("Expected encoded cursor, got %q", out.NextCursor)
	}

	last := r.Page(&models.CommentPage{Items: []*models.Comment{}})
	data, _ := json.Marshal(last)
	if string(data) != `{"items":[]}` {
		t.Errorf("Expected no cursor on last page, got %s", data)
	}
}
