package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"golang.org/x/term"

	"github.com/reelcut/reelcut-agent/internal/clock"
	"github.com/reelcut/reelcut-agent/internal/library"
	"github.com/reelcut/reelcut-agent/internal/processing"
	"github.com/reelcut/reelcut-agent/internal/session"
	"github.com/reelcut/reelcut-agent/internal/shorts"
	"github.com/reelcut/reelcut-agent/internal/timecode"
	"github.com/reelcut/reelcut-agent/internal/upload"
	"github.com/reelcut/reelcut-agent/internal/youtube"
)

const usage = `Usage: reelcut [command]

Commands:
  serve                          run the local API (default)
  login [-register] <email>      sign in to the processing backend
  logout                         clear the stored session
  whoami                         show the signed-in user
  videos                         list processed videos
  process [flags] <file|url>     process a video and print its shorts
  trim [-title t] <video> <short> <start> <end>
                                 change the trim range of a saved short
  music [-n count] <theme>       suggest background music from YouTube
  version                        print version information
`

type command func(ctx context.Context, a *app, args []string, out io.Writer) error

var commands = map[string]command{
	"login":   loginCommand,
	"logout":  logoutCommand,
	"whoami":  whoamiCommand,
	"videos":  videosCommand,
	"process": processCommand,
	"trim":    trimCommand,
	"music":   musicCommand,
}

// readPassword is swapped out in tests so they never touch the terminal.
var readPassword = term.ReadPassword

func runCommand(ctx context.Context, a *app, name string, args []string, out io.Writer) error {
	cmd, ok := commands[name]
	if !ok {
		return fmt.Errorf("unknown command %q", name)
	}
	return cmd(ctx, a, args, out)
}

func loginCommand(ctx context.Context, a *app, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	fs.SetOutput(out)
	register := fs.Bool("register", false, "create a new account")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("usage: reelcut login [-register] <email>")
	}
	email := strings.TrimSpace(fs.Arg(0))

	fmt.Fprint(out, "Password: ")
	pw, err := readPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(out)
	if err != nil {
		return fmt.Errorf("read password: %w", err)
	}
	password := string(pw)
	if password == "" {
		return errors.New("password is required")
	}

	if *register {
		err = a.session.Register(ctx, email, password)
	} else {
		err = a.session.Login(ctx, email, password)
	}
	if err != nil {
		return err
	}

	profile, err := a.session.CurrentUser(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Logged in as %s\n", profile.Email)
	return nil
}

func logoutCommand(ctx context.Context, a *app, _ []string, out io.Writer) error {
	if err := a.session.Logout(ctx); err != nil {
		return err
	}
	fmt.Fprintln(out, "Logged out")
	return nil
}

func whoamiCommand(ctx context.Context, a *app, _ []string, out io.Writer) error {
	profile, err := a.session.CurrentUser(ctx)
	if errors.Is(err, session.ErrNotAuthenticated) {
		fmt.Fprintln(out, "Not logged in")
		return nil
	}
	if err != nil {
		return err
	}

	name := profile.Name
	if name == "" {
		name = profile.Email
	}
	fmt.Fprintf(out, "%s <%s>\n", name, profile.Email)
	if pic := profile.Picture(); pic != "" {
		fmt.Fprintf(out, "picture: %s\n", pic)
	}
	return nil
}

func videosCommand(ctx context.Context, a *app, _ []string, out io.Writer) error {
	videos, err := a.library.Videos(ctx)
	if err != nil {
		return err
	}
	if len(videos) == 0 {
		fmt.Fprintln(out, "No videos yet")
		return nil
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tDURATION\tUPLOADED")
	for _, v := range videos {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", v.ID, v.Name, v.Duration, humanize.Time(v.UploadDate))
	}
	return tw.Flush()
}

// processCommand runs one upload session to completion in the terminal,
// rendering progress and then the generated shorts.
func processCommand(ctx context.Context, a *app, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("process", flag.ContinueOnError)
	fs.SetOutput(out)
	description := fs.String("description", "", "what the video is about")
	audience := fs.String("audience", "", "target audience")
	keywords := fs.String("keywords", "", "comma separated keywords")
	contentType := fs.String("type", "", "content type: "+strings.Join(library.ContentTypes, ", "))
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("usage: reelcut process [flags] <file|youtube-url>")
	}
	source := fs.Arg(0)

	var (
		mu       sync.Mutex
		once     sync.Once
		failure  string
		lastStep string
	)
	done := make(chan struct{})
	a.upload.OnChange(func(s upload.Snapshot) {
		mu.Lock()
		defer mu.Unlock()
		switch {
		case s.Phase == upload.PhaseFailed:
			failure = s.Error
			once.Do(func() { close(done) })
		case s.Phase.Active():
			if msg := processing.Message(s.Progress); msg != lastStep {
				lastStep = msg
				processing.Render(out, processing.View{Progress: s.Progress})
			}
		}
	})
	// registered after the app's own handler, so shorts are loaded by now
	a.upload.OnComplete(func(library.Video) {
		once.Do(func() { close(done) })
	})

	var err error
	if youtube.IsValidURL(source) {
		err = a.upload.SubmitYoutubeLink(ctx, source)
	} else {
		err = a.upload.SelectFile(source)
	}
	if err != nil {
		return err
	}

	if *description != "" || *audience != "" || *keywords != "" || *contentType != "" {
		err = a.upload.SubmitContext(library.VideoContext{
			Description:    *description,
			TargetAudience: *audience,
			Keywords:       library.ParseKeywords(*keywords),
			ContentType:    *contentType,
		})
	} else {
		err = a.upload.SkipContext()
	}
	if err != nil {
		return err
	}

	if err := a.upload.Start(ctx); err != nil {
		return err
	}

	select {
	case <-done:
	case <-ctx.Done():
		a.upload.Reset()
		return ctx.Err()
	}

	mu.Lock()
	defer mu.Unlock()
	if failure != "" {
		return fmt.Errorf("processing failed: %s", failure)
	}
	processing.Render(out, processing.View{Progress: 100})

	state := a.shorts.State()
	if state.LoadError != "" {
		return fmt.Errorf("no shorts were generated: %s", state.LoadError)
	}
	if state.Video == nil {
		return errors.New("no shorts were generated")
	}
	if state.Notice != "" {
		fmt.Fprintf(out, "\nNote: %s\n", state.Notice)
	}
	return printShorts(out, *state.Video, state.Shorts)
}

func printShorts(out io.Writer, video library.Video, list []library.Short) error {
	fmt.Fprintf(out, "\n%s (%s): %d shorts\n\n", video.Name, video.Duration, len(list))

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSTART\tLENGTH\tTITLE")
	for _, s := range list {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", s.ID, s.Timestamp, s.Duration, s.Title)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if len(video.Transcript) > 0 {
		fmt.Fprintln(out)
		return processing.Render(out, processing.View{Tab: processing.TabTranscript, Transcript: video.Transcript})
	}
	return nil
}

// trimCommand edits one stored short through the trim editor, the same path
// the review screen uses.
func trimCommand(ctx context.Context, a *app, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("trim", flag.ContinueOnError)
	fs.SetOutput(out)
	title := fs.String("title", "", "new title")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 4 {
		return errors.New("usage: reelcut trim [-title t] <video-id> <short-id> <start> <end>")
	}
	start, err := parseTime(fs.Arg(2))
	if err != nil {
		return err
	}
	end, err := parseTime(fs.Arg(3))
	if err != nil {
		return err
	}

	if err := a.shorts.Open(ctx, fs.Arg(0)); err != nil {
		return err
	}
	video, _ := a.shorts.Video()

	var player shorts.Player
	if !video.IsYoutubeVideo {
		player = shorts.NewVirtualPlayer(clock.Real{}, video.Duration.Seconds())
	}
	ed, err := a.shorts.Edit(fs.Arg(1), player)
	if err != nil {
		return err
	}

	// widen first so the intermediate range stays valid
	_, curEnd := ed.Trim()
	if start >= curEnd {
		err = errors.Join(ed.SetTrimEnd(end), ed.SetTrimStart(start))
	} else {
		err = errors.Join(ed.SetTrimStart(start), ed.SetTrimEnd(end))
	}
	if err != nil {
		a.shorts.CancelEdit()
		return fmt.Errorf("trim %s-%s: %w", timecode.Format(start), timecode.Format(end), err)
	}
	if *title != "" {
		ed.SetTitle(*title)
	}

	s, err := a.shorts.CommitEdit(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "%s: %s starts at %s, %s long\n", s.ID, s.Title, s.Timestamp, s.Duration)
	return nil
}

func musicCommand(ctx context.Context, a *app, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("music", flag.ContinueOnError)
	fs.SetOutput(out)
	count := fs.Int("n", youtube.DefaultMusicResults, "number of suggestions")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return errors.New("usage: reelcut music [-n count] <theme>")
	}

	tracks, err := a.music.SearchMusic(ctx, strings.Join(fs.Args(), " "), *count)
	if err != nil {
		return err
	}
	if len(tracks) == 0 {
		fmt.Fprintln(out, "No music found")
		return nil
	}
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TITLE\tCHANNEL\tURL")
	for _, t := range tracks {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", t.Title, t.Channel, t.URL)
	}
	return tw.Flush()
}

// parseTime accepts "M:SS", "H:MM:SS" or plain seconds.
func parseTime(v string) (float64, error) {
	if strings.Contains(v, ":") {
		return timecode.Parse(v)
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid time %q", v)
	}
	return f, nil
}
