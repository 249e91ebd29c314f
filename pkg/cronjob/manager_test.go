package cronjob

import (
	"context"
	"testing"

	. "github.com/bytedance/mockey"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/raids-lab/tracker/pkg/cleaner"
	"github.com/raids-lab/tracker/pkg/config"
)

func TestAddCronJob(t *testing.T) {
	PatchConvey("AddCronJob", t, func() {
		manager := NewCronJobManager(nil)

		noop := func(_ context.Context) (int64, error) { return 0, nil }

		entryID, err := manager.AddCronJob(cleaner.PurgeEpicsJob, "0 3 * * *", noop)
		So(err, ShouldBeNil)
		So(entryID, ShouldBeGreaterThan, 0)

		entryID, err = manager.AddCronJob(cleaner.PurgeEpicsJob, "not a cron spec", noop)
		So(err, ShouldNotBeNil)
		So(entryID, ShouldEqual, -1)
	})
}

func TestStart(t *testing.T) {
	PatchConvey("Start", t, func() {
		Convey("no schedule leaves the scheduler idle", func() {
			Mock(config.GetConfig).Return(&config.Config{}).Build()

			manager := NewCronJobManager(nil)
			So(manager.Start(), ShouldBeNil)
			So(len(manager.cron.Entries()), ShouldEqual, 0)
		})

		Convey("a schedule registers both purge jobs", func() {
			conf := &config.Config{}
			conf.Retention.PurgeSchedule = "0 3 * * *"
			Mock(config.GetConfig).Return(conf).Build()

			manager := NewCronJobManager(nil)
			So(manager.Start(), ShouldBeNil)
			defer manager.StopCron()
			So(len(manager.cron.Entries()), ShouldEqual, 2)
		})

		Convey("a bad schedule fails startup", func() {
			conf := &config.Config{}
			conf.Retention.PurgeSchedule = "every now and then"
			Mock(config.GetConfig).Return(conf).Build()

			manager := NewCronJobManager(nil)
			So(manager.Start(), ShouldNotBeNil)
		})
	})
}
