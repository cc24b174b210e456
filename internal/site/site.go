package site

import (
	"errors"
	"net/url"
	"strings"
)

// Origin indica cómo se llega a la API REST del sitio.
type Origin string

const (
	// OriginWPCom: sitio conectado con Jetpack, las llamadas van por el túnel de WordPress.com
	OriginWPCom Origin = "WPCOM"
	// OriginApplicationPassword: llamada directa a {url}/wp-json con application password
	OriginApplicationPassword Origin = "APPLICATION_PASSWORD"
)

var (
	ErrInvalidSite = errors.New("invalid site")
	ErrNotFound    = errors.New("site not found")
)

// Site es el contexto que necesita cada llamada REST y cada fila persistida.
type Site struct {
	LocalID  int    `json:"local_id"`
	SiteID   int64  `json:"site_id"` // id remoto en WordPress.com (0 si no aplica)
	URL      string `json:"url"`
	Name     string `json:"name"`
	Origin   Origin `json:"origin"`
	Username string `json:"username,omitempty"`
	Password string `json:"-"`
	Token    string `json:"-"`
}

// IsWPCom indica si el sitio usa el túnel de Jetpack.
func (s Site) IsWPCom() bool {
	return s.Origin == OriginWPCom
}

// Validate verifica que el sitio tenga lo necesario según su origen.
func (s Site) Validate() error {
	switch s.Origin {
	case OriginWPCom:
		if s.SiteID <= 0 {
			return errors.Join(ErrInvalidSite, errors.New("site_id is required for WPCOM sites"))
		}
		if s.Token == "" {
			return errors.Join(ErrInvalidSite, errors.New("token is required for WPCOM sites"))
		}
	case OriginApplicationPassword:
		u, err := url.Parse(s.URL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return errors.Join(ErrInvalidSite, errors.New("url must be absolute"))
		}
		if s.Username == "" || s.Password == "" {
			return errors.Join(ErrInvalidSite, errors.New("username and password are required"))
		}
	default:
		return errors.Join(ErrInvalidSite, errors.New("unknown origin"))
	}
	return nil
}

// RestURL devuelve la raíz wp-json del sitio sin barra final.
func (s Site) RestURL() string {
	return strings.TrimRight(s.URL, "/") + "/wp-json"
}
