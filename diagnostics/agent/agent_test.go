package agent

import (
	"io/ioutil"
	"net/http"
	"testing"

	"github.com/bmizerany/assert"
	log "github.com/sirupsen/logrus"
)

func init() {
	log.SetOutput(ioutil.Discard)
}

func TestAgentServesPprofAndExtra(t *testing.T) {
	a, err := Start("127.0.0.1:0", map[string]http.Handler{
		"/debug/hello": http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("hello"))
		}),
	})
	assert.Equal(t, nil, err)
	defer a.Stop()

	resp, err := http.Get("http://" + a.Addr() + "/debug/pprof/")
	assert.Equal(t, nil, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get("http://" + a.Addr() + "/debug/hello")
	assert.Equal(t, nil, err)
	body, _ := ioutil.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, "hello", string(body))
}

func TestAgentBadAddr(t *testing.T) {
	_, err := Start("256.0.0.1:-1", nil)
	assert.NotEqual(t, nil, err)
}

func TestAgentExtraIsGetOnly(t *testing.T) {
	a, err := Start("127.0.0.1:0", map[string]http.Handler{
		"/debug/x": http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}),
	})
	assert.Equal(t, nil, err)
	defer a.Stop()

	resp, err := http.Post("http://"+a.Addr()+"/debug/x", "text/plain", nil)
	assert.Equal(t, nil, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}
