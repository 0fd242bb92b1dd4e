package output_test

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"

	"mkvauto/internal/classify"
	"mkvauto/internal/discdb"
	"mkvauto/internal/output"
)

const library = "/library"

type fakeProber map[string]float64

func (f fakeProber) Duration(_ context.Context, path string) (float64, error) {
	if seconds, ok := f[path]; ok {
		return seconds, nil
	}
	return 0, errors.New("no duration")
}

func newResolver(t *testing.T, fs afero.Fs, prober output.DurationProber) (*output.Resolver, *discdb.JSONStore) {
	t.Helper()
	store := discdb.NewJSONStore("", nil)
	return &output.Resolver{FS: fs, Store: store, Prober: prober, GiBPerHour: 1}, store
}

func writeFile(t *testing.T, fs afero.Fs, path string, size int) {
	t.Helper()
	if err := fs.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := afero.WriteFile(fs, path, make([]byte, size), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func minutes(values ...int) []classify.Title {
	titles := make([]classify.Title, len(values))
	for i, m := range values {
		titles[i] = classify.Title{Index: i, DurationSeconds: m * 60}
	}
	return titles
}

func request(class classify.ContentClass, name, id string, titles []classify.Title) output.Request {
	return output.Request{
		Result:   classify.Result{Class: class, SuggestedName: name},
		Identity: id,
		BaseDir:  library,
		Titles:   titles,
	}
}

func TestResolveFreeFolder(t *testing.T) {
	fs := afero.NewMemMapFs()
	if err := fs.MkdirAll(filepath.Join(library, "Empty"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	r, _ := newResolver(t, fs, nil)

	for _, name := range []string{"Absent", "Empty"} {
		got, err := r.Resolve(context.Background(), request(classify.Movie, name, "", minutes(120)))
		if err != nil {
			t.Fatalf("Resolve(%s): %v", name, err)
		}
		want := filepath.Join(library, name)
		if got.State != output.StateFresh || got.Action != output.ActionUsePath || got.Path != want {
			t.Fatalf("Resolve(%s) = %+v, want fresh at %s", name, got, want)
		}
	}
}

func TestResolveOverwriteUsesBase(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFile(t, fs, filepath.Join(library, "Heat", "title_t00.mkv"), 10)
	r, store := newResolver(t, fs, nil)
	r.OverwriteExisting = true
	if err := store.Add(discdb.Record{DiscID: "ID1", OutputPath: "/elsewhere"}); err != nil {
		t.Fatalf("Add: %v", err)
	}

	got, err := r.Resolve(context.Background(), request(classify.Movie, "Heat", "ID1", minutes(170)))
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got.State != output.StateFresh || got.Path != filepath.Join(library, "Heat") {
		t.Fatalf("Resolve = %+v, want fresh at base", got)
	}
}

func TestResolveDuplicateByIdentity(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFile(t, fs, filepath.Join(library, "Show", "a.mkv"), 10)
	r, store := newResolver(t, fs, nil)
	if err := store.Add(discdb.Record{DiscID: "ID1", OutputPath: "/tv/Show Disc 2"}); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := store.Add(discdb.Record{DiscID: "ID2"}); err != nil {
		t.Fatalf("Add: %v", err)
	}

	got, err := r.Resolve(context.Background(), request(classify.TV, "Show", "ID1", minutes(22, 22)))
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got.State != output.StateDuplicateByID || got.Action != output.ActionSkipDuplicate || got.Path != "/tv/Show Disc 2" {
		t.Fatalf("Resolve = %+v, want duplicate at stored path", got)
	}

	got, err = r.Resolve(context.Background(), request(classify.TV, "Show", "ID2", minutes(22, 22)))
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got.Path != filepath.Join(library, "Show") {
		t.Fatalf("empty stored path should fall back to base, got %s", got.Path)
	}
}

func TestResolveTVNextDisc(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFile(t, fs, filepath.Join(library, "Show", "a.mkv"), 10)
	r, _ := newResolver(t, fs, nil)
	req := request(classify.TV, "Show", "", minutes(22, 22, 22))

	got, err := r.Resolve(context.Background(), req)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got.State != output.StateTVNextDisc || got.Path != filepath.Join(library, "Show Disc 2") {
		t.Fatalf("first collision = %+v, want Show Disc 2", got)
	}

	writeFile(t, fs, filepath.Join(got.Path, "a.mkv"), 10)
	got, err = r.Resolve(context.Background(), req)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got.Path != filepath.Join(library, "Show Disc 3") {
		t.Fatalf("second collision = %s, want Show Disc 3", got.Path)
	}
}

func TestResolveTVOverflow(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFile(t, fs, filepath.Join(library, "Show", "a.mkv"), 10)
	for n := 2; n <= output.MaxProbe; n++ {
		writeFile(t, fs, filepath.Join(library, fmt.Sprintf("Show Disc %d", n), "a.mkv"), 10)
	}
	r, _ := newResolver(t, fs, nil)

	got, err := r.Resolve(context.Background(), request(classify.TV, "Show", "", minutes(22)))
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if !got.Overflow || got.Path != filepath.Join(library, "Show") {
		t.Fatalf("Resolve = %+v, want overflow at base", got)
	}
}

func TestResolveMovieSameRuntimeSkips(t *testing.T) {
	fs := afero.NewMemMapFs()
	existing := filepath.Join(library, "Heat", "title_t00.mkv")
	writeFile(t, fs, existing, 10)
	r, _ := newResolver(t, fs, fakeProber{existing: 120 * 60})

	got, err := r.Resolve(context.Background(), request(classify.Movie, "Heat", "", minutes(121)))
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got.State != output.StateMovieVariant || got.Action != output.ActionSkipDuplicate || got.Path != filepath.Join(library, "Heat") {
		t.Fatalf("Resolve = %+v, want skip at base", got)
	}
}

func TestResolveMovieDifferentCutGetsVariant(t *testing.T) {
	fs := afero.NewMemMapFs()
	existing := filepath.Join(library, "Heat", "title_t00.mkv")
	writeFile(t, fs, existing, 10)
	r, _ := newResolver(t, fs, fakeProber{existing: 120 * 60})

	got, err := r.Resolve(context.Background(), request(classify.Movie, "Heat", "", minutes(100, 100)))
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got.Action != output.ActionUsePath || got.Path != filepath.Join(library, "Heat (2)") {
		t.Fatalf("Resolve = %+v, want Heat (2)", got)
	}
}

func TestResolveMovieFileAtBasePathGetsVariant(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFile(t, fs, filepath.Join(library, "Heat"), 10)
	r, _ := newResolver(t, fs, fakeProber{})

	got, err := r.Resolve(context.Background(), request(classify.Movie, "Heat", "", minutes(120)))
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got.Action != output.ActionUsePath || got.State != output.StateMovieVariant || got.Path != filepath.Join(library, "Heat (2)") {
		t.Fatalf("Resolve = %+v, want Heat (2)", got)
	}
}

func TestResolveUnknownFollowsMovieRules(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFile(t, fs, filepath.Join(library, "Disc", "a.mkv"), 10)
	writeFile(t, fs, filepath.Join(library, "Disc (2)", "a.mkv"), 10)
	r, _ := newResolver(t, fs, fakeProber{})

	got, err := r.Resolve(context.Background(), request(classify.Unknown, "Disc", "", minutes(95)))
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got.State != output.StateMovieVariant || got.Path != filepath.Join(library, "Disc (3)") {
		t.Fatalf("Resolve = %+v, want Disc (3)", got)
	}
}

func TestFolderStatsFallsBackToSize(t *testing.T) {
	fs := afero.NewMemMapFs()
	dir := filepath.Join(library, "Heat")
	writeFile(t, fs, filepath.Join(dir, "a.mkv"), 1024)
	writeFile(t, fs, filepath.Join(dir, "notes.txt"), 1024)
	writeFile(t, fs, filepath.Join(dir, "extras", "b.mkv"), 1024)

	stats, err := output.FolderStats(context.Background(), fs, dir, fakeProber{}, 1)
	if err != nil {
		t.Fatalf("FolderStats: %v", err)
	}
	if stats.Files != 1 {
		t.Fatalf("Files = %d, want 1", stats.Files)
	}
	want := output.EstimateSeconds(1024, 1)
	if stats.Seconds != want {
		t.Fatalf("Seconds = %v, want %v", stats.Seconds, want)
	}
}

func TestFolderStatsIgnoresRegularFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	path := filepath.Join(library, "Heat")
	writeFile(t, fs, path, 1024)

	stats, err := output.FolderStats(context.Background(), fs, path, fakeProber{}, 1)
	if err != nil {
		t.Fatalf("FolderStats: %v", err)
	}
	if stats != (output.Stats{}) {
		t.Fatalf("FolderStats = %+v, want empty", stats)
	}
}

func TestEstimateSeconds(t *testing.T) {
	if got := output.EstimateSeconds(2*1024*1024*1024, 1); got != 7200 {
		t.Fatalf("EstimateSeconds(2GiB) = %v, want 7200", got)
	}
	if got := output.EstimateSeconds(0, 1); got != 0 {
		t.Fatalf("EstimateSeconds(0) = %v", got)
	}
}
