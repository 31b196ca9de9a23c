package dto

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/lukeybeachboy/todo-api/internal/model"
)

func TestToTodoResponse_WireShape(t *testing.T) {
	t.Parallel()

	at := time.UnixMilli(333).UTC()
	todo := &model.Todo{
		ID:          "651f00000000000000000002",
		Text:        "Second test todo",
		Completed:   true,
		CompletedAt: &at,
		OwnerID:     "651f00000000000000000009",
	}

	tests := []struct {
		name           string
		todo           *model.Todo
		includeCreator bool
		want           string
	}{
		{
			name:           "completed with creator",
			todo:           todo,
			includeCreator: true,
			want:           `{"_id":"651f00000000000000000002","text":"Second test todo","completed":true,"completedAt":333,"_creator":"651f00000000000000000009"}`,
		},
		{
			name: "open todo keeps null completedAt",
			todo: &model.Todo{ID: "651f00000000000000000001", Text: "First test todo", OwnerID: "x"},
			want: `{"_id":"651f00000000000000000001","text":"First test todo","completed":false,"completedAt":null}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := json.Marshal(ToTodoResponse(tt.todo, tt.includeCreator))
			if err != nil {
				t.Fatalf("marshal: %v", err)
			}
			if string(got) != tt.want {
				t.Errorf("got  %s\nwant %s", got, tt.want)
			}
		})
	}
}

func TestToTodoListResponse_EmptyIsArray(t *testing.T) {
	t.Parallel()

	got, err := json.Marshal(ToTodoListResponse(nil, false))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(got) != `{"todos":[]}` {
		t.Errorf("got %s, want {\"todos\":[]}", got)
	}
}
