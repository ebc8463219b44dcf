package page

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleHTML = `<!doctype html>
<html>
<head><title>t</title><script src="/x.js"></script></head>
<body>
  <section id="home" class="hero"><h1>Hola</h1></section>
  <section id="register" class="section hidden" style="display: none">
    <form id="form"><input id="email" value="a@b.co"><textarea id="message">hi there</textarea></form>
  </section>
  <div class="payment-methods">
    <div class="payment-method" id="pm-card"><span id="pm-card-label">Tarjeta</span></div>
    <div class="payment-method selected" id="pm-paypal"><span>PayPal</span></div>
  </div>
  <p id="mixed">Hola <strong>mundo</strong></p>
  <script>alert(1)</script>
</body>
</html>`

func parseSample(t *testing.T) *Document {
	t.Helper()
	d, err := ParseString(sampleHTML)
	require.NoError(t, err)
	return d
}

func TestParseIndexesIDsAndAttributes(t *testing.T) {
	d := parseSample(t)

	home := d.ByID("home")
	require.NotNil(t, home)
	assert.True(t, home.HasClass("hero"))
	assert.Equal(t, "Hola", d.Query("h1").Text)

	reg := d.Query("#register")
	require.NotNil(t, reg)
	assert.Equal(t, "none", reg.Style("display"))
	assert.False(t, reg.Visible())

	assert.Equal(t, "a@b.co", d.ByID("email").Value)
	assert.Equal(t, "hi there", d.ByID("message").Value)
	assert.Empty(t, d.QueryAll("script"))

	mixed := d.ByID("mixed")
	assert.Equal(t, "Hola mundo", mixed.TextContent())
}

func TestShowClearsBothMarkers(t *testing.T) {
	d := parseSample(t)
	reg := d.ByID("register")

	d.Show(reg)
	assert.True(t, reg.Visible())
	assert.False(t, reg.HasClass(HiddenClass))
	assert.Equal(t, "block", reg.Style("display"))

	d.Hide(reg)
	assert.False(t, reg.Visible())
}

func TestAppendAndRemoveRecordPatches(t *testing.T) {
	d := New()
	el := NewElement("div").WithClass("toast").WithText("hola")
	d.Append(nil, el)

	require.NotEmpty(t, el.ID)
	assert.Same(t, el, d.ByID(el.ID))
	assert.Len(t, d.QueryAll(".toast"), 1)

	assert.True(t, d.Remove(el))
	assert.False(t, d.Remove(el), "second remove is a no-op")
	assert.Nil(t, d.ByID(el.ID))

	patches := d.Drain()
	require.Len(t, patches, 2)
	assert.Equal(t, OpAppend, patches[0].Op)
	assert.Equal(t, BodyID, patches[0].Target)
	assert.Equal(t, "hola", patches[0].Node.Text)
	assert.Equal(t, OpRemove, patches[1].Op)
	assert.Empty(t, d.Drain())
}

func TestOperationsOnMissingElementsAreNoOps(t *testing.T) {
	d := New()
	var missing *Element
	d.Show(missing)
	d.Hide(missing)
	d.SetText(missing, "x")
	d.ScrollIntoView(missing, "center")
	d.AddClass(NewElement("div"), "detached")
	assert.Zero(t, d.Pending())
}

func TestClosestAndClasses(t *testing.T) {
	d := parseSample(t)
	label := d.ByID("pm-card-label")
	opt := label.Closest(".payment-method")
	require.NotNil(t, opt)
	assert.Equal(t, "pm-card", opt.ID)

	d.AddClass(opt, "selected")
	d.AddClass(opt, "selected")
	assert.Equal(t, []string{"payment-method", "selected"}, opt.Classes())
	assert.Len(t, d.QueryAll(".selected"), 2)
}

func TestSetTextDropsChildren(t *testing.T) {
	d := parseSample(t)
	mixed := d.ByID("mixed")
	d.SetText(mixed, "nuevo")
	assert.Empty(t, mixed.Children())
	assert.Equal(t, "nuevo", mixed.TextContent())
	assert.Nil(t, d.Query("strong"))
}

func TestRectPad(t *testing.T) {
	r := Rect{Top: 100, Left: 50, Width: 200, Height: 80}.Pad(10)
	assert.Equal(t, Rect{Top: 90, Left: 40, Width: 220, Height: 100}, r)
}

func TestSnapshotRoundTripsStructure(t *testing.T) {
	d := parseSample(t)
	snap := d.Snapshot()
	assert.Equal(t, BodyID, snap.ID)
	require.NotEmpty(t, snap.Children)
	assert.Equal(t, "home", snap.Children[0].ID)
}
