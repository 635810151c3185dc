package tracking_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/okian/tagline/internal/adapters/tracking"
	"github.com/okian/tagline/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

func TestLatestVersions(t *testing.T) {
	Convey("Given a tracking server with staged versions", t, func(c C) {
		var gotBody map[string]any
		var gotAuth string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			c.So(r.URL.Path, ShouldEqual, "/api/2.0/mlflow/registered-models/get-latest-versions")
			c.So(r.Method, ShouldEqual, http.MethodPost)
			gotAuth = r.Header.Get("Authorization")
			_ = json.NewDecoder(r.Body).Decode(&gotBody)
			_ = json.NewEncoder(w).Encode(map[string]any{
				"model_versions": []map[string]any{
					{"name": "my_model", "version": "4", "current_stage": "Production", "run_id": "r-1"},
				},
			})
		}))
		defer srv.Close()

		client := tracking.New(srv.URL, tracking.WithToken("sekrit"))

		Convey("When querying the Production bucket", func() {
			versions, err := client.LatestVersions(context.Background(), "my_model", []types.Stage{types.StageProduction})

			Convey("Then the request carries the name and stages", func() {
				So(err, ShouldBeNil)
				So(gotBody["name"], ShouldEqual, "my_model")
				So(gotBody["stages"], ShouldResemble, []any{"Production"})
			})

			Convey("And the response decodes into domain versions", func() {
				So(versions, ShouldHaveLength, 1)
				So(versions[0].Version, ShouldEqual, "4")
				So(versions[0].Stage, ShouldEqual, types.StageProduction)
			})

			Convey("And the token rides as basic auth", func() {
				So(gotAuth, ShouldStartWith, "Basic ")
			})
		})
	})

	Convey("Given a tracking server that has never seen the model", t, func() {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
			_ = json.NewEncoder(w).Encode(map[string]string{
				"error_code": "RESOURCE_DOES_NOT_EXIST",
				"message":    "model not found",
			})
		}))
		defer srv.Close()

		client := tracking.New(srv.URL)

		Convey("When querying latest versions", func() {
			versions, err := client.LatestVersions(context.Background(), "ghost", []types.Stage{types.StageProduction})

			Convey("Then the missing model reads as an empty bucket", func() {
				So(err, ShouldBeNil)
				So(versions, ShouldBeEmpty)
			})
		})
	})
}

func TestSearchVersions(t *testing.T) {
	Convey("Given a tracking server with registered versions", t, func(c C) {
		var gotFilter string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			c.So(r.URL.Path, ShouldEqual, "/api/2.0/mlflow/model-versions/search")
			gotFilter = r.URL.Query().Get("filter")
			_ = json.NewEncoder(w).Encode(map[string]any{
				"model_versions": []map[string]any{
					{"name": "my_model", "version": "1", "current_stage": "Archived"},
					{"name": "my_model", "version": "2", "current_stage": "Archived"},
				},
			})
		}))
		defer srv.Close()

		client := tracking.New(srv.URL)

		Convey("When searching all versions by name", func() {
			versions, err := client.SearchVersions(context.Background(), "my_model")

			So(err, ShouldBeNil)
			So(gotFilter, ShouldEqual, "name='my_model'")
			So(versions, ShouldHaveLength, 2)
		})
	})
}

func TestErrorHandling(t *testing.T) {
	Convey("Given a tracking server returning a plain 500", t, func() {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "boom", http.StatusInternalServerError)
		}))
		defer srv.Close()

		client := tracking.New(srv.URL)

		Convey("When any call is made", func() {
			_, err := client.DownloadURI(context.Background(), "my_model", "1")

			Convey("Then the error wraps the status sentinel", func() {
				So(errors.Is(err, tracking.ErrStatus), ShouldBeTrue)
			})
		})
	})

	Convey("Given an unreachable server", t, func() {
		client := tracking.New("http://127.0.0.1:1")

		Convey("When any call is made", func() {
			_, err := client.SearchVersions(context.Background(), "my_model")

			Convey("Then the error wraps the request sentinel", func() {
				So(errors.Is(err, tracking.ErrRequest), ShouldBeTrue)
			})
		})
	})
}

func TestRunLifecycle(t *testing.T) {
	Convey("Given a tracking server accepting run bookkeeping", t, func() {
		var paths []string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			paths = append(paths, r.URL.Path)
			switch r.URL.Path {
			case "/api/2.0/mlflow/experiments/get-by-name":
				w.WriteHeader(http.StatusNotFound)
				_ = json.NewEncoder(w).Encode(map[string]string{"error_code": "RESOURCE_DOES_NOT_EXIST"})
			case "/api/2.0/mlflow/experiments/create":
				_ = json.NewEncoder(w).Encode(map[string]string{"experiment_id": "exp-7"})
			case "/api/2.0/mlflow/runs/create":
				_ = json.NewEncoder(w).Encode(map[string]any{
					"run": map[string]any{"info": map[string]string{"run_id": "run-42"}},
				})
			default:
				w.WriteHeader(http.StatusOK)
			}
		}))
		defer srv.Close()

		client := tracking.New(srv.URL)
		ctx := context.Background()

		Convey("When resolving a new experiment and running it to completion", func() {
			expID, err := client.ExperimentID(ctx, "pipeline-eval")
			So(err, ShouldBeNil)
			So(expID, ShouldEqual, "exp-7")

			runID, err := client.CreateRun(ctx, expID)
			So(err, ShouldBeNil)
			So(runID, ShouldEqual, "run-42")

			So(client.LogParam(ctx, runID, "model_path", "models/model.json"), ShouldBeNil)
			So(client.LogMetric(ctx, runID, "accuracy", 0.91), ShouldBeNil)
			So(client.FinishRun(ctx, runID, tracking.RunStatusFinished), ShouldBeNil)

			Convey("Then the experiment was created because the lookup missed", func() {
				So(paths, ShouldContain, "/api/2.0/mlflow/experiments/create")
			})
		})
	})
}

func TestRegisterAndPromote(t *testing.T) {
	Convey("Given a tracking server where the registered model already exists", t, func() {
		var transition map[string]any
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.URL.Path {
			case "/api/2.0/mlflow/registered-models/create":
				w.WriteHeader(http.StatusBadRequest)
				_ = json.NewEncoder(w).Encode(map[string]string{"error_code": "RESOURCE_ALREADY_EXISTS"})
			case "/api/2.0/mlflow/model-versions/create":
				_ = json.NewEncoder(w).Encode(map[string]any{
					"model_version": map[string]any{"name": "my_model", "version": "5", "current_stage": "None"},
				})
			case "/api/2.0/mlflow/model-versions/transition-stage":
				_ = json.NewDecoder(r.Body).Decode(&transition)
				_ = json.NewEncoder(w).Encode(map[string]any{
					"model_version": map[string]any{"name": "my_model", "version": "5", "current_stage": "Staging"},
				})
			default:
				w.WriteHeader(http.StatusNotFound)
			}
		}))
		defer srv.Close()

		client := tracking.New(srv.URL)
		ctx := context.Background()

		Convey("When registering and promoting a version", func() {
			mv, err := client.RegisterVersion(ctx, "my_model", "runs:/run-42/model", "run-42")
			So(err, ShouldBeNil)
			So(mv.Version, ShouldEqual, "5")

			promoted, err := client.TransitionStage(ctx, "my_model", mv.Version, types.StageStaging, true)
			So(err, ShouldBeNil)

			Convey("Then the promotion archives existing staging versions", func() {
				So(promoted.Stage, ShouldEqual, types.StageStaging)
				So(transition["archive_existing_versions"], ShouldBeTrue)
				So(transition["stage"], ShouldEqual, "Staging")
			})
		})
	})
}
