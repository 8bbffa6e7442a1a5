package service_test

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	service "github.com/okian/clockery/internal/app"
	"github.com/okian/clockery/internal/adapters/repository"
	"github.com/okian/clockery/internal/domain/model"
	"github.com/okian/clockery/pkg/logger"
)

func init() {
	if err := logger.InitWithWriter(io.Discard); err != nil {
		panic(err)
	}
}

// eventually polls cond until it holds or two seconds pass.
func eventually(cond func() bool) bool {
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return cond()
}

func submission(id, name string, score float64) model.Submission {
	return model.Submission{ID: id, Name: name, Score: score, ReceivedAt: time.Now()}
}

func TestService_Lifecycle(t *testing.T) {
	Convey("Given a new service", t, func() {
		ctx := context.Background()
		svc := service.New(service.WithWorkerCount(2), service.WithQueueSize(16))

		Convey("Then Register refuses to run before Start", func() {
			So(svc.Register(ctx, http.NewServeMux()), ShouldEqual, service.ErrNotStarted)
		})

		Convey("And Stats is empty before Start", func() {
			So(svc.Stats(ctx).Entries, ShouldEqual, 0)
		})

		Convey("When started", func() {
			So(svc.Start(ctx), ShouldBeNil)
			defer func() { _ = svc.Stop(ctx) }()

			Convey("Then starting again is a no-op", func() {
				So(svc.Start(ctx), ShouldBeNil)
			})

			Convey("And routes can be registered", func() {
				So(svc.Register(ctx, http.NewServeMux()), ShouldBeNil)
			})
		})

		Convey("When stopped without being started", func() {
			Convey("Then it is a no-op", func() {
				So(svc.Stop(ctx), ShouldBeNil)
			})
		})
	})

	Convey("Given an unknown store kind", t, func() {
		svc := service.New(service.WithStore("redis", ""))

		Convey("Then Start fails", func() {
			So(svc.Start(context.Background()), ShouldNotBeNil)
		})
	})
}

func TestService_Pipeline(t *testing.T) {
	Convey("Given a started service", t, func() {
		ctx := context.Background()
		svc := service.New(service.WithWorkerCount(2), service.WithQueueSize(64))
		So(svc.Start(ctx), ShouldBeNil)
		defer func() { _ = svc.Stop(ctx) }()

		Convey("When submissions are enqueued", func() {
			So(svc.Enqueue(ctx, submission("a", "ada", 30)), ShouldBeTrue)
			So(svc.Enqueue(ctx, submission("b", "bob", 20)), ShouldBeTrue)
			So(svc.Enqueue(ctx, submission("c", "cy", 20)), ShouldBeTrue)

			Convey("Then workers rank them with dense ties", func() {
				So(eventually(func() bool { return svc.Stats(ctx).Entries == 3 }), ShouldBeTrue)

				top, err := svc.TopN(ctx, 10)
				So(err, ShouldBeNil)
				So(top, ShouldHaveLength, 3)
				So(top[0].ID, ShouldEqual, "a")
				So(top[0].Rank, ShouldEqual, 1)
				So(top[1].Rank, ShouldEqual, 2)
				So(top[2].Rank, ShouldEqual, 2)

				e, err := svc.Rank(ctx, "c")
				So(err, ShouldBeNil)
				So(e.Name, ShouldEqual, "cy")
				So(e.Rank, ShouldEqual, 2)

				So(svc.Stats(ctx).TopScore, ShouldEqual, 30)
			})
		})

		Convey("When an implausible submission is enqueued", func() {
			bad := submission("z", "cheat", 1e6)
			bad.Duration = time.Second
			So(svc.Enqueue(ctx, bad), ShouldBeTrue)
			So(svc.Enqueue(ctx, submission("ok", "ok", 1)), ShouldBeTrue)

			Convey("Then it never reaches the board", func() {
				So(eventually(func() bool { return svc.Stats(ctx).Entries == 1 }), ShouldBeTrue)
				_, err := svc.Rank(ctx, "z")
				So(err, ShouldEqual, repository.ErrNotFound)
			})
		})

		Convey("When an id is seen twice", func() {
			So(svc.SeenAndRecord(ctx, "dup"), ShouldBeFalse)
			So(svc.SeenAndRecord(ctx, "dup"), ShouldBeTrue)

			Convey("Then it is counted as deduplicated", func() {
				So(svc.Stats(ctx).Deduped, ShouldEqual, 1)
				So(svc.Size(), ShouldEqual, 1)
			})

			Convey("And Unrecord forgets it", func() {
				svc.Unrecord(ctx, "dup")
				So(svc.SeenAndRecord(ctx, "dup"), ShouldBeFalse)
			})
		})
	})
}

func TestService_SQLitePersistence(t *testing.T) {
	Convey("Given a service backed by sqlite", t, func() {
		ctx := context.Background()
		path := filepath.Join(t.TempDir(), "board.db")

		svc := service.New(service.WithStore(service.StoreSQLite, path), service.WithWorkerCount(1))
		So(svc.Start(ctx), ShouldBeNil)
		So(svc.Enqueue(ctx, submission("a", "ada", 12.5)), ShouldBeTrue)
		So(eventually(func() bool { return svc.Stats(ctx).Entries == 1 }), ShouldBeTrue)
		So(svc.Stop(ctx), ShouldBeNil)

		Convey("When a new service opens the same file", func() {
			again := service.New(service.WithStore(service.StoreSQLite, path))
			So(again.Start(ctx), ShouldBeNil)
			defer func() { _ = again.Stop(ctx) }()

			Convey("Then earlier entries are still ranked", func() {
				e, err := again.Rank(ctx, "a")
				So(err, ShouldBeNil)
				So(e.Rank, ShouldEqual, 1)
				So(e.Score, ShouldEqual, 12.5)
			})
		})
	})
}

func TestService_DrainsOnStop(t *testing.T) {
	Convey("Given a service with queued submissions", t, func() {
		ctx := context.Background()
		store := repository.NewTreapStore()
		svc := service.New(service.WithRepository(store), service.WithWorkerCount(1), service.WithQueueSize(256))
		So(svc.Start(ctx), ShouldBeNil)

		for i := range 100 {
			So(svc.Enqueue(ctx, submission(fmt.Sprintf("s-%03d", i), "p", float64(i+1))), ShouldBeTrue)
		}

		Convey("When it stops", func() {
			So(svc.Stop(ctx), ShouldBeNil)

			Convey("Then every queued submission was stored", func() {
				So(store.Count(ctx), ShouldEqual, 100)
			})
		})
	})
}
