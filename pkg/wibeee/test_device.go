package wibeee

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
)

// TEST_STATUS_XML is a three phase meter. fase4 carries the totals.
const TEST_STATUS_XML = `<?xml version="1.0" encoding="UTF-8"?>
<response>
<fase1_vrms>231.03</fase1_vrms>
<fase1_irms>1.36</fase1_irms>
<fase1_p_aparent>314.07</fase1_p_aparent>
<fase1_p_activa>262.00</fase1_p_activa>
<fase1_p_reactiva_ind>0.00</fase1_p_reactiva_ind>
<fase1_p_reactiva_cap>172.00</fase1_p_reactiva_cap>
<fase1_frecuencia>50.01</fase1_frecuencia>
<fase1_factor_potencia>-0.834</fase1_factor_potencia>
<fase1_energia_activa>1285032.94</fase1_energia_activa>
<fase1_energia_reactiva_ind>87034.41</fase1_energia_reactiva_ind>
<fase1_energia_reactiva_cap>402157.81</fase1_energia_reactiva_cap>
<fase2_vrms>232.40</fase2_vrms>
<fase2_irms>0.42</fase2_irms>
<fase2_p_activa>61.00</fase2_p_activa>
<fase2_frecuencia>50.01</fase2_frecuencia>
<fase3_vrms>229.87</fase3_vrms>
<fase3_irms>2.08</fase3_irms>
<fase3_p_activa>455.00</fase3_p_activa>
<fase3_frecuencia>50.01</fase3_frecuencia>
<fase4_vrms>231.10</fase4_vrms>
<fase4_irms>3.86</fase4_irms>
<fase4_p_activa>778.00</fase4_p_activa>
<fase4_frecuencia>50.01</fase4_frecuencia>
</response>`

// TestDevice serves a status document the way the meter's embedded web
// server does. Body and status code can be swapped while it runs.
type TestDevice struct {
	server *httptest.Server

	mu         sync.Mutex
	body       string
	statusCode int
	requests   int
}

func NewTestDevice(body string) *TestDevice {
	dev := &TestDevice{
		body:       body,
		statusCode: http.StatusOK,
	}
	dev.server = httptest.NewServer(http.HandlerFunc(dev.serve))
	return dev
}

func (d *TestDevice) serve(w http.ResponseWriter, r *http.Request) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.requests++
	if r.URL.Path != "/en/status.xml" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/xml")
	w.WriteHeader(d.statusCode)
	w.Write([]byte(d.body))
}

// Host returns host:port, as configured for a real device.
func (d *TestDevice) Host() string {
	return strings.TrimPrefix(d.server.URL, "http://")
}

func (d *TestDevice) SetBody(body string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.body = body
}

func (d *TestDevice) SetStatusCode(code int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.statusCode = code
}

// Requests counts the requests served so far.
func (d *TestDevice) Requests() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.requests
}

func (d *TestDevice) Close() {
	d.server.Close()
}
