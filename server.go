package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"log/syslog"
	"net/http"
	"os"
	"path"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/isotube/isotube-server/api"
	"github.com/isotube/isotube-server/database"
	"github.com/isotube/isotube-server/imagecache"
	"github.com/isotube/isotube-server/refresher"
	"github.com/isotube/isotube-server/search"
	"github.com/isotube/isotube-server/store"
	"github.com/isotube/isotube-server/youtube"
)

func main() {
	pflag.Int("port", 8080, "Port to listen on")
	pflag.String("dbdir", ".", "Directory holding the state database")
	pflag.String("cachedir", "", "Directory for cached thumbnails, empty disables caching to disk")
	pflag.String("appdir", "", "Directory with the web app to serve, empty disables")
	pflag.String("apikey", "", "YouTube Data API key; without it only single video adds work")
	pflag.String("statekey", "", "Name of the persisted state document")
	pflag.Duration("refresh-interval", 30*time.Minute, "Interval between subscription refreshes")
	pflag.String("logfile", "", "Path of logfile. Use 'syslog' for syslog, 'stdout' "+
		"for standard output, or 'none' to disable logging.")
	pflag.String("config", "", "Path of config file")
	pflag.Parse()

	viper.SetEnvPrefix("isotube")
	viper.AutomaticEnv()
	if err := viper.BindPFlags(pflag.CommandLine); err != nil {
		log.Fatalf("viper.BindPFlags: %s", err)
	}
	if configFile := viper.GetString("config"); configFile != "" {
		viper.SetConfigFile(configFile)
		if err := viper.ReadInConfig(); err != nil {
			log.Fatalf("error reading config file: %s", err)
		}
	}

	switch logfile := viper.GetString("logfile"); logfile {
	case "syslog":
		logw, err := syslog.New(syslog.LOG_NOTICE, "isotube")
		if err != nil {
			log.Fatalf("error opening syslog: %v", err)
		}
		log.SetOutput(logw)
	case "none":
		log.SetOutput(io.Discard)
	case "":
		fallthrough
	case "stdout":
	default:
		f, err := os.OpenFile(logfile,
			os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0666)
		if err != nil {
			log.Fatalf("error opening file: %v", err)
		}
		defer f.Close()
		log.SetOutput(f)
	}

	repo, err := database.New(&database.Options{
		Filename: path.Join(viper.GetString("dbdir"), "isotube-state.db"),
	})
	if err != nil {
		log.Fatalf("database.New: %s", err)
	}

	stateStore := store.New(&store.Options{
		Repo: repo,
		Key:  viper.GetString("statekey"),
	})

	metadata := youtube.New(youtube.Options{
		APIKey: viper.GetString("apikey"),
	})

	images := imagecache.New(imagecache.Options{
		Cachedir: viper.GetString("cachedir"),
	})
	if viper.GetString("cachedir") != "" {
		go images.Background(30*24*time.Hour, time.Hour)
	}

	ctx := context.Background()

	indexer := search.NewIndexer(stateStore)
	if err := indexer.Init(ctx); err != nil {
		log.Fatalf("search.Init: %s", err)
	}
	go indexer.Background(ctx)

	if viper.GetString("apikey") != "" {
		r := refresher.New(&refresher.Options{
			Store:    stateStore,
			Client:   metadata,
			Interval: viper.GetDuration("refresh-interval"),
		})
		go r.Background(ctx)
	}

	r := mux.NewRouter()
	a := api.New(&api.Options{
		Store:    stateStore,
		Metadata: metadata,
		Search:   indexer,
		Images:   images,
	})
	a.RegisterHandlers(r)

	if appdir := viper.GetString("appdir"); appdir != "" {
		r.PathPrefix("/").Handler(http.FileServer(http.Dir(appdir)))
	}

	// The web app may be served from a separate dev server during development.
	cors := handlers.CORS(
		handlers.AllowedMethods([]string{"GET", "POST", "DELETE"}),
		handlers.AllowedHeaders([]string{"Content-Type"}),
	)

	addr := fmt.Sprintf(":%d", viper.GetInt("port"))
	log.Printf("Serving HTTP on %s", addr)
	log.Fatal(http.ListenAndServe(addr, HttpLog(cors(r))))
}
