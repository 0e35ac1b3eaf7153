// 程序入口：仅负责读取配置、初始化依赖并启动服务；API 注册在 internal/api 以便扩展
package main

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"road-api/internal/api"
	"road-api/internal/city"
	"road-api/internal/country"
	"road-api/internal/geoconv"
	"road-api/internal/logger"
	"road-api/internal/metrics"
	"road-api/internal/middleware"
	"road-api/internal/migrate"
	"road-api/internal/roadapi"
	"road-api/internal/store"
	"road-api/internal/track"
	"road-api/internal/utils"
	"road-api/internal/version"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join("data", "env", ".env"))
	// 日志初始化
	l := logger.Setup()
	l.Info("starting", "commit", version.Commit)

	apiBase := os.Getenv("API_BASE")
	if apiBase == "" {
		apiBase = "/api"
	}
	l.Debug("config_api_base", "base", apiBase)

	db, err := utils.OpenPostgresFromEnv()
	if err != nil {
		l.Error("db_open_error", "err", err)
		os.Exit(1)
	}
	defer db.Close()
	l.Info("db_open_ok")
	if err := db.Ping(); err != nil {
		l.Error("db_ping_error", "err", err)
	} else {
		l.Info("db_ping_ok")
	}
	if err := migrate.EnsureSchema(db); err != nil {
		l.Error("schema_error", "err", err)
		os.Exit(1)
	}

	rc := utils.OpenRedisFromEnv()
	if rc == nil {
		l.Info("redis_disabled")
	} else {
		if err := rc.Ping(context.Background()).Err(); err != nil {
			l.Error("redis_ping_error", "err", err)
		} else {
			l.Info("redis_ping_ok")
		}
	}
	st := store.AttachDB(db, rc)
	// 字典缓存夜间预热：参照表由外部系统夜间维护
	st.StartNightlyShanghai()

	token := os.Getenv("API_TOKEN")
	if token == "" {
		l.Error("config_missing", "key", "API_TOKEN")
		os.Exit(1)
	}
	countryBase := os.Getenv("COUNTRY_API_BASE_URL")
	cityBase := os.Getenv("CITY_API_BASE_URL")
	if countryBase == "" || cityBase == "" {
		l.Error("config_missing", "key", "COUNTRY_API_BASE_URL/CITY_API_BASE_URL")
		os.Exit(1)
	}
	ak := os.Getenv("BAIDU_AK")
	if ak == "" {
		l.Error("config_missing", "key", "BAIDU_AK")
		os.Exit(1)
	}

	directionPath := os.Getenv("DIRECTION_CONFIG")
	if directionPath == "" {
		directionPath = filepath.Join("assets", "direction_mapping.json")
	}
	directions := country.LoadDirections(directionPath)

	gen := track.NewGenerator(geoconv.NewClient(ak, nil))
	countryImp := &country.Importer{
		Lookups:    st,
		Roads:      roadapi.NewClient(countryBase, token, nil),
		Tracks:     gen,
		Recorder:   st,
		Directions: directions,
	}
	cityImp := &city.Importer{
		Lookups:  st,
		Roads:    roadapi.NewClient(cityBase, token, nil),
		Recorder: st,
	}

	templateDir := os.Getenv("TEMPLATE_DIR")
	if templateDir == "" {
		templateDir = "src"
	}
	l.Debug("config_template_dir", "dir", templateDir)

	mux := http.NewServeMux()
	apiMux := api.BuildRoutes(api.Deps{
		Stats:       st,
		Country:     countryImp,
		City:        cityImp,
		TemplateDir: templateDir,
	})
	mux.Handle(apiBase+"/", http.StripPrefix(apiBase, apiMux))
	mux.Handle(apiBase+"/metrics", metrics.Handler())

	addr := os.Getenv("ADDR")
	if addr == "" {
		addr = ":8080"
	}
	handler := logger.AccessMiddleware(l)(mux)
	handler = middleware.CORS(handler)
	handler = middleware.Wrap(handler)
	s := &http.Server{Addr: addr, Handler: handler}
	tlsEnable := os.Getenv("TLS_ENABLE")
	if tlsEnable == "true" {
		certPath := os.Getenv("TLS_CERT_PATH")
		keyPath := os.Getenv("TLS_KEY_PATH")
		if certPath == "" {
			certPath = filepath.Join("data", "certs", "server.crt")
		}
		if keyPath == "" {
			keyPath = filepath.Join("data", "certs", "server.key")
		}
		_ = utils.EnsureSelfSignedCert(certPath, keyPath, "road-api.local")
		// 可选：启动HTTP重定向到HTTPS（不改变HTTPS运行端口）
		if os.Getenv("TLS_REDIRECT_ENABLE") == "true" {
			redirAddr := os.Getenv("TLS_REDIRECT_ADDR")
			if redirAddr == "" {
				redirAddr = ":80"
			}
			go func() {
				httpRedir := http.NewServeMux()
				httpRedir.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
					httpsPort := strings.TrimPrefix(addr, ":")
					baseHost := r.Host
					if i := strings.LastIndex(baseHost, ":"); i != -1 {
						baseHost = baseHost[:i]
					}
					target := "https://" + baseHost
					if httpsPort != "" {
						target += ":" + httpsPort
					}
					target += r.URL.RequestURI()
					http.Redirect(w, r, target, http.StatusMovedPermanently)
					l.Debug("http_redirect", "from", r.Host, "to", target)
				})
				l.Info("http_redirect_listening", "addr", redirAddr, "to", "https"+addr)
				_ = http.ListenAndServe(redirAddr, logger.AccessMiddleware(l)(httpRedir))
			}()
		}
		l.Info("listening_tls", "addr", addr, "cert", certPath)
		_ = s.ListenAndServeTLS(certPath, keyPath)
		return
	}
	l.Info("listening", "addr", addr)
	_ = s.ListenAndServe()
}
