package geomap

import (
	"bytes"
	"encoding/json"
	"html/template"
	"os"

	"github.com/grailbio/base/log"
	"github.com/popgenlab/haplomap/util"
	"gonum.org/v1/gonum/stat"
)

// DefaultTitle is the page title used when the caller does not supply one.
const DefaultTitle = "Ancient haplogroup map"

const defaultZoom = 3

// WriteHTML renders markers into a single-file interactive map page at path.
// Leaflet and Chart.js load from CDNs; everything else, including all chart
// data, is embedded in the page, so the period and marker-system controls
// only show or hide markers. The page is staged under a temporary name and
// renamed into place. An empty marker set renders a valid, empty map.
func WriteHTML(path, title string, markers []Marker) error {
	if title == "" {
		title = DefaultTitle
	}
	if markers == nil {
		markers = []Marker{}
	}
	markersJSON, err := marshalTemplateJS(markers)
	if err != nil {
		return err
	}
	lat, lon := center(markers)
	data := struct {
		Title       string
		CenterLat   float64
		CenterLon   float64
		Zoom        int
		MarkersJSON template.JS
	}{title, lat, lon, defaultZoom, markersJSON}

	var buf bytes.Buffer
	if err := mapTemplate.Execute(&buf, data); err != nil {
		return err
	}
	if err := util.WriteFileAtomic(path, func(f *os.File) error {
		_, werr := f.Write(buf.Bytes())
		return werr
	}); err != nil {
		return err
	}
	log.Printf("%s: wrote map with %d markers", path, len(markers))
	return nil
}

// marshalTemplateJS encodes a value as JSON and tags it as safe for direct
// embedding in the page script.
func marshalTemplateJS(value interface{}) (template.JS, error) {
	payload, err := json.Marshal(value)
	if err != nil {
		return template.JS(""), err
	}
	return template.JS(payload), nil
}

// center averages the marker coordinates. With no markers the view falls back
// to a whole-world framing.
func center(markers []Marker) (lat, lon float64) {
	if len(markers) == 0 {
		return 20, 0
	}
	lats := make([]float64, len(markers))
	lons := make([]float64, len(markers))
	for i, m := range markers {
		lats[i] = m.Lat
		lons[i] = m.Lon
	}
	return stat.Mean(lats, nil), stat.Mean(lons, nil)
}

var mapTemplate = template.Must(template.New("map").Parse(mapHTML))

const mapHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<link rel="stylesheet" href="https://unpkg.com/leaflet@1.9.4/dist/leaflet.css">
<script src="https://unpkg.com/leaflet@1.9.4/dist/leaflet.js"></script>
<script src="https://cdn.jsdelivr.net/npm/chart.js"></script>
<script src="https://cdn.jsdelivr.net/npm/chartjs-plugin-datalabels@2.0.0"></script>
<style>
  html, body { margin: 0; height: 100%; }
  #map { width: 100%; height: 100%; }
  #filterControl {
    position: absolute; top: 10px; left: 50px; z-index: 1000;
    background: white; padding: 10px; border-radius: 4px;
    box-shadow: 0 1px 5px rgba(0,0,0,0.4); font: 14px/1.4 sans-serif;
  }
  .popup-chart h4 { margin: 0 0 4px 0; }
  .popup-chart p { margin: 0 0 6px 0; }
</style>
</head>
<body>
<div id="map"></div>
<div id="filterControl">
  <label for="bpDropdown"><strong>Select BP interval:</strong></label><br>
  <select id="bpDropdown" style="width: 100%; margin-top: 5px; padding: 4px;">
    <option value="all">All Ages</option>
    <option value="-100000,-7000">Before 7000 BCE</option>
    <option value="-7000,-6000">7000-6000 BCE</option>
    <option value="-6000,-5000">6000-5000 BCE</option>
    <option value="-5000,-4000">5000-4000 BCE</option>
    <option value="-4000,-3000">4000-3000 BCE</option>
    <option value="-3000,-2500">3000-2500 BCE</option>
    <option value="-2500,-2000">2500-2000 BCE</option>
    <option value="-2000,-1500">2000-1500 BCE</option>
    <option value="-1500,-1000">1500-1000 BCE</option>
    <option value="-1000,-500">1000-500 BCE</option>
    <option value="-500,0">500-0 BCE</option>
    <option value="0,500">0-500 CE</option>
    <option value="500,1000">500-1000 CE</option>
    <option value="1000,1500">1000-1500 CE</option>
    <option value="1500,2000">1500-2000 CE</option>
    <option value="2000,100000">After 2000 CE</option>
  </select>
  <div style="margin-top: 8px;">
    <input type="checkbox" id="showYChr" checked><label for="showYChr"> Y-chr</label>
    <input type="checkbox" id="showMtDNA" checked style="margin-left: 10px;"><label for="showMtDNA"> mtDNA</label>
  </div>
</div>
<script>
Chart.register(ChartDataLabels);

var markersData = {{.MarkersJSON}};

var map = L.map('map').setView([{{.CenterLat}}, {{.CenterLon}}], {{.Zoom}});
L.tileLayer('https://tile.openstreetmap.org/{z}/{x}/{y}.png', {
  maxZoom: 19,
  attribution: '&copy; OpenStreetMap contributors'
}).addTo(map);

var charts = {};
var leafletMarkers = [];

function esc(s) {
  return String(s).replace(/&/g, '&amp;').replace(/</g, '&lt;').replace(/>/g, '&gt;');
}

function popupHTML(m) {
  var system = m.system === 'Y' ? 'Y-chr haplogroups' : 'mtDNA haplogroups';
  return '<div class="popup-chart">' +
    '<h4>' + esc(m.population) + ' (' + esc(m.country) + ')</h4>' +
    '<p>Age: ' + esc(m.age) + ' &middot; Samples: ' + m.n + '</p>' +
    '<p>' + system + '</p>' +
    '<canvas id="' + m.id + '" width="600" height="550"></canvas>' +
    '</div>';
}

function renderChart(m) {
  if (charts[m.id]) {
    charts[m.id].destroy();
  }
  var ctx = document.getElementById(m.id).getContext('2d');
  charts[m.id] = new Chart(ctx, {
    type: 'doughnut',
    data: {
      labels: m.labels,
      datasets: [
        { label: 'Subclades', data: m.outer, backgroundColor: m.colors, borderAlign: 'inner', borderWidth: 1 },
        { label: 'Basal', data: m.inner, backgroundColor: m.colors, borderAlign: 'inner', borderWidth: 1 }
      ]
    },
    options: {
      responsive: false,
      cutout: '50%',
      plugins: {
        legend: {
          position: 'right',
          labels: {
            filter: function(item) { return !m.undetermined[item.index]; }
          }
        },
        tooltip: {
          callbacks: {
            label: function(context) {
              var value = context.raw || 0;
              return context.label + ': ' + value.toFixed(2) + '%';
            }
          }
        },
        datalabels: {
          display: function(context) {
            var idx = context.dataIndex;
            return context.dataset.data[idx] > 0 && !m.undetermined[idx];
          },
          formatter: function(value, context) {
            var idx = context.dataIndex;
            var lbl = context.chart.data.labels[idx];
            if (context.datasetIndex === 0) {
              var disp = m.display[idx];
              return disp === null ? lbl : lbl + ' ' + disp.toFixed(1) + '%';
            }
            return lbl;
          },
          color: '#000',
          font: { weight: 'bold', size: 12 }
        }
      }
    }
  });
}

markersData.forEach(function(m) {
  var marker = L.marker([m.lat, m.lon]);
  marker.bindTooltip(esc(m.population) + ' (' + esc(m.country) + ')');
  marker.bindPopup(popupHTML(m), { maxWidth: 850 });
  marker.on('popupopen', function() { renderChart(m); });
  marker.addTo(map);
  leafletMarkers.push(marker);
});

var currentLow = null;
var currentHigh = null;
var showY = true;
var showMt = true;

function applyAllFilters() {
  markersData.forEach(function(m, i) {
    var marker = leafletMarkers[i];
    var byType = m.system === 'Y' ? showY : showMt;
    var byAge = true;
    if (currentLow !== null) {
      byAge = m.yearCE !== null && m.yearCE >= currentLow && m.yearCE <= currentHigh;
    }
    if (byType && byAge) {
      if (!map.hasLayer(marker)) { map.addLayer(marker); }
    } else {
      if (map.hasLayer(marker)) { map.removeLayer(marker); }
    }
  });
}

document.getElementById('bpDropdown').onchange = function() {
  if (this.value === 'all') {
    currentLow = null;
    currentHigh = null;
  } else {
    var parts = this.value.split(',');
    currentLow = parseFloat(parts[0]);
    currentHigh = parseFloat(parts[1]);
  }
  applyAllFilters();
};
document.getElementById('showYChr').onchange = function() {
  showY = this.checked;
  applyAllFilters();
};
document.getElementById('showMtDNA').onchange = function() {
  showMt = this.checked;
  applyAllFilters();
};
</script>
</body>
</html>
`
