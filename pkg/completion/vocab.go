package completion

import "sort"

// TagInfo describes an HTML element in the static vocabulary.
type TagInfo struct {
	Description string
	Snippet     string
	Void        bool
}

// AttrInfo describes an HTML attribute. Global attributes apply to every
// tag; Boolean attributes are inserted without a value. Values lists the
// completable values, ValuesByTag refines them per enclosing tag.
type AttrInfo struct {
	Description string
	Global      bool
	Boolean     bool
	Tags        []string
	Values      []string
	ValuesByTag map[string][]string
}

// CallableInfo describes a template filter, function, or test.
type CallableInfo struct {
	Description string
	Args        []string
}

// KeywordInfo describes a template statement keyword. Snippet, when set,
// is the body inserted inside the statement delimiters.
type KeywordInfo struct {
	Description string
	Snippet     string
}

var htmlTags = map[string]TagInfo{
	"div":     {Description: "Generic container element", Snippet: "<div$1>$2</div>$0"},
	"span":    {Description: "Inline generic container", Snippet: "<span$1>$2</span>$0"},
	"p":       {Description: "Paragraph element", Snippet: "<p$1>$2</p>$0"},
	"a":       {Description: "Anchor/link element", Snippet: `<a href="$1"$2>$3</a>$0`},
	"img":     {Description: "Image element", Snippet: `<img src="$1" alt="$2"$3>$0`, Void: true},
	"input":   {Description: "Input element", Snippet: `<input type="$1" name="$2"$3>$0`, Void: true},
	"form":    {Description: "Form element", Snippet: "<form action=\"$1\" method=\"$2\"$3>\n    $4\n</form>$0"},
	"button":  {Description: "Button element", Snippet: `<button type="$1"$2>$3</button>$0`},
	"table":   {Description: "Table element", Snippet: "<table$1>\n    <tr>\n        <td>$2</td>\n    </tr>\n</table>$0"},
	"ul":      {Description: "Unordered list", Snippet: "<ul$1>\n    <li>$2</li>\n</ul>$0"},
	"ol":      {Description: "Ordered list", Snippet: "<ol$1>\n    <li>$2</li>\n</ol>$0"},
	"li":      {Description: "List item", Snippet: "<li$1>$2</li>$0"},
	"h1":      {Description: "Heading 1", Snippet: "<h1$1>$2</h1>$0"},
	"h2":      {Description: "Heading 2", Snippet: "<h2$1>$2</h2>$0"},
	"h3":      {Description: "Heading 3", Snippet: "<h3$1>$2</h3>$0"},
	"h4":      {Description: "Heading 4", Snippet: "<h4$1>$2</h4>$0"},
	"h5":      {Description: "Heading 5", Snippet: "<h5$1>$2</h5>$0"},
	"h6":      {Description: "Heading 6", Snippet: "<h6$1>$2</h6>$0"},
	"header":  {Description: "Header section", Snippet: "<header$1>\n    $2\n</header>$0"},
	"footer":  {Description: "Footer section", Snippet: "<footer$1>\n    $2\n</footer>$0"},
	"nav":     {Description: "Navigation section", Snippet: "<nav$1>\n    $2\n</nav>$0"},
	"main":    {Description: "Main content section", Snippet: "<main$1>\n    $2\n</main>$0"},
	"section": {Description: "Section element", Snippet: "<section$1>\n    $2\n</section>$0"},
	"article": {Description: "Article element", Snippet: "<article$1>\n    $2\n</article>$0"},
	"aside":   {Description: "Aside element", Snippet: "<aside$1>\n    $2\n</aside>$0"},
}

var htmlAttributes = map[string]AttrInfo{
	"class":  {Description: "Space-separated list of CSS classes", Global: true},
	"id":     {Description: "Unique identifier", Global: true},
	"style":  {Description: "Inline CSS styles", Global: true},
	"title":  {Description: "Advisory information about the element", Global: true},
	"data-*": {Description: "Custom data attributes", Global: true},
	"href": {
		Description: "URL reference",
		Tags:        []string{"a", "link"},
		Values:      []string{"#", "mailto:", "tel:", "javascript:"},
	},
	"src": {
		Description: "Source URL",
		Tags:        []string{"img", "script", "iframe", "audio", "video", "source"},
	},
	"alt": {Description: "Alternative text", Tags: []string{"img", "area", "input"}},
	"type": {
		Description: "Type specification",
		Tags:        []string{"input", "button", "script", "style", "link"},
		ValuesByTag: map[string][]string{
			"input": {"text", "password", "email", "number", "tel", "url", "search",
				"submit", "reset", "button", "checkbox", "radio", "file", "hidden",
				"date", "datetime-local", "month", "week", "time", "color", "range"},
			"button": {"submit", "reset", "button"},
			"script": {"text/javascript", "module"},
			"style":  {"text/css"},
			"link":   {"stylesheet", "icon", "preload", "prefetch"},
		},
	},
	"name":        {Description: "Name of the element", Tags: []string{"input", "select", "textarea", "button", "form", "fieldset", "output"}},
	"value":       {Description: "Value of the element", Tags: []string{"input", "button", "option", "li", "meter", "progress"}},
	"placeholder": {Description: "Placeholder text", Tags: []string{"input", "textarea"}},
	"required":    {Description: "Required field", Tags: []string{"input", "select", "textarea"}, Boolean: true},
	"disabled":    {Description: "Disabled element", Global: true, Boolean: true},
	"readonly":    {Description: "Read-only element", Tags: []string{"input", "textarea"}, Boolean: true},
	"checked":     {Description: "Checked state", Tags: []string{"input"}, Boolean: true},
	"selected":    {Description: "Selected state", Tags: []string{"option"}, Boolean: true},
	"method": {
		Description: "HTTP method",
		Tags:        []string{"form"},
		Values:      []string{"get", "post", "put", "delete", "patch"},
	},
	"action": {Description: "Form action URL", Tags: []string{"form"}},
	"target": {
		Description: "Target window or frame",
		Tags:        []string{"a", "form"},
		Values:      []string{"_blank", "_self", "_parent", "_top"},
	},
	"rel": {
		Description: "Relationship between documents",
		Tags:        []string{"a", "link"},
		Values:      []string{"stylesheet", "icon", "canonical", "nofollow", "noopener", "noreferrer"},
	},
}

var jinjaFilters = map[string]CallableInfo{
	"abs":            {Description: "Return absolute value of a number"},
	"attr":           {Description: "Get attribute of an object", Args: []string{"name"}},
	"batch":          {Description: "Batch items into sublists", Args: []string{"linecount", "fill_with"}},
	"capitalize":     {Description: "Capitalize the first character"},
	"center":         {Description: "Center string in given width", Args: []string{"width"}},
	"default":        {Description: "Use default value if variable is undefined", Args: []string{"default_value", "boolean"}},
	"d":              {Description: "Alias for default filter", Args: []string{"default_value", "boolean"}},
	"dictsort":       {Description: "Sort dictionary by key or value", Args: []string{"case_sensitive", "by"}},
	"escape":         {Description: "Escape HTML characters"},
	"e":              {Description: "Alias for escape filter"},
	"filesizeformat": {Description: "Format bytes as human readable file size"},
	"first":          {Description: "Return first item of sequence"},
	"float":          {Description: "Convert to floating point number", Args: []string{"default"}},
	"forceescape":    {Description: "Force HTML escaping"},
	"format":         {Description: "Format string using printf-style formatting"},
	"groupby":        {Description: "Group items by attribute", Args: []string{"attribute"}},
	"indent":         {Description: "Indent lines of text", Args: []string{"width", "first"}},
	"int":            {Description: "Convert to integer", Args: []string{"default", "base"}},
	"join":           {Description: "Join items with separator", Args: []string{"separator", "attribute"}},
	"last":           {Description: "Return last item of sequence"},
	"length":         {Description: "Return length of sequence"},
	"count":          {Description: "Alias for length filter"},
	"list":           {Description: "Convert to list"},
	"lower":          {Description: "Convert to lowercase"},
	"map":            {Description: "Apply filter to each item", Args: []string{"filter"}},
	"max":            {Description: "Return maximum value", Args: []string{"attribute"}},
	"min":            {Description: "Return minimum value", Args: []string{"attribute"}},
	"pprint":         {Description: "Pretty print variable"},
	"random":         {Description: "Return random item from sequence"},
	"reject":         {Description: "Filter items that match test", Args: []string{"test"}},
	"rejectattr":     {Description: "Filter items by attribute test", Args: []string{"attribute", "test"}},
	"replace":        {Description: "Replace substring", Args: []string{"old", "new", "count"}},
	"reverse":        {Description: "Reverse sequence"},
	"round":          {Description: "Round number", Args: []string{"precision", "method"}},
	"safe":           {Description: "Mark string as safe for HTML output"},
	"s":              {Description: "Alias for safe filter"},
	"select":         {Description: "Filter items that match test", Args: []string{"test"}},
	"selectattr":     {Description: "Filter items by attribute test", Args: []string{"attribute", "test"}},
	"slice":          {Description: "Slice sequence", Args: []string{"slices", "fill_with"}},
	"sort":           {Description: "Sort sequence", Args: []string{"reverse", "case_sensitive", "attribute"}},
	"string":         {Description: "Convert to string"},
	"striptags":      {Description: "Remove HTML tags"},
	"sum":            {Description: "Sum numeric values", Args: []string{"attribute", "start"}},
	"title":          {Description: "Convert to title case"},
	"trim":           {Description: "Remove leading/trailing whitespace", Args: []string{"chars"}},
	"truncate":       {Description: "Truncate string", Args: []string{"length", "killwords", "end", "leeway"}},
	"unique":         {Description: "Remove duplicate items", Args: []string{"case_sensitive", "attribute"}},
	"upper":          {Description: "Convert to uppercase"},
	"urlencode":      {Description: "URL encode string"},
	"urlize":         {Description: "Convert URLs to clickable links", Args: []string{"trim_url_limit", "nofollow", "target", "rel"}},
	"wordcount":      {Description: "Count words in string"},
	"wordwrap":       {Description: "Wrap text to specified width", Args: []string{"width", "break_long_words", "wrapstring"}},
	"xmlattr":        {Description: "Create XML/HTML attributes from dict"},
	"tojson":         {Description: "Convert to JSON string", Args: []string{"indent"}},
}

var jinjaFunctions = map[string]CallableInfo{
	"range":     {Description: "Generate range of numbers", Args: []string{"start", "stop", "step"}},
	"lipsum":    {Description: "Generate lorem ipsum text", Args: []string{"n", "html", "min", "max"}},
	"dict":      {Description: "Create dictionary from keyword arguments"},
	"cycler":    {Description: "Create cycler object", Args: []string{"items"}},
	"joiner":    {Description: "Create joiner object", Args: []string{"sep"}},
	"namespace": {Description: "Create namespace object for variable assignment"},
}

var jinjaTests = map[string]CallableInfo{
	"callable":    {Description: "Test if object is callable"},
	"defined":     {Description: "Test if variable is defined"},
	"divisibleby": {Description: "Test if number is divisible by another", Args: []string{"num"}},
	"escaped":     {Description: "Test if string is escaped"},
	"even":        {Description: "Test if number is even"},
	"iterable":    {Description: "Test if object is iterable"},
	"lower":       {Description: "Test if string is lowercase"},
	"mapping":     {Description: "Test if object is mapping"},
	"none":        {Description: "Test if value is none"},
	"number":      {Description: "Test if value is a number"},
	"odd":         {Description: "Test if number is odd"},
	"sameas":      {Description: "Test if objects are the same", Args: []string{"other"}},
	"sequence":    {Description: "Test if object is a sequence"},
	"string":      {Description: "Test if value is a string"},
	"undefined":   {Description: "Test if variable is undefined"},
	"upper":       {Description: "Test if string is uppercase"},
}

var jinjaKeywords = map[string]KeywordInfo{
	"if":            {Description: "Conditional statement", Snippet: "if $1 %}\n    $2\n{% endif %}$0"},
	"elif":          {Description: "Else if condition"},
	"else":          {Description: "Else clause"},
	"endif":         {Description: "End if statement"},
	"for":           {Description: "For loop", Snippet: "for $1 in $2 %}\n    $3\n{% endfor %}$0"},
	"endfor":        {Description: "End for loop"},
	"break":         {Description: "Break from loop"},
	"continue":      {Description: "Continue to next iteration"},
	"extends":       {Description: "Extend base template", Snippet: `extends "$1"`},
	"block":         {Description: "Define block", Snippet: "block $1 %}\n    $2\n{% endblock %}$0"},
	"endblock":      {Description: "End block definition"},
	"super":         {Description: "Call parent block content"},
	"include":       {Description: "Include another template", Snippet: `include "$1"`},
	"import":        {Description: "Import template", Snippet: `import "$1" as $2`},
	"from":          {Description: "Import from template", Snippet: `from "$1" import $2`},
	"set":           {Description: "Set variable", Snippet: "set $1 = $2"},
	"macro":         {Description: "Define macro", Snippet: "macro $1($2) %}\n    $3\n{% endmacro %}$0"},
	"endmacro":      {Description: "End macro definition"},
	"call":          {Description: "Call macro with content", Snippet: "call $1($2) %}\n    $3\n{% endcall %}$0"},
	"endcall":       {Description: "End call block"},
	"with":          {Description: "Create local scope", Snippet: "with $1 = $2 %}\n    $3\n{% endwith %}$0"},
	"endwith":       {Description: "End with block"},
	"filter":        {Description: "Apply filter to block", Snippet: "filter $1 %}\n    $2\n{% endfilter %}$0"},
	"endfilter":     {Description: "End filter block"},
	"raw":           {Description: "Raw content block", Snippet: "raw %}\n    $1\n{% endraw %}$0"},
	"endraw":        {Description: "End raw block"},
	"autoescape":    {Description: "Auto-escape block", Snippet: "autoescape $1 %}\n    $2\n{% endautoescape %}$0"},
	"endautoescape": {Description: "End auto-escape block"},
	"and":           {Description: "Logical AND operator"},
	"or":            {Description: "Logical OR operator"},
	"not":           {Description: "Logical NOT operator"},
	"is":            {Description: "Test operator"},
	"in":            {Description: "Membership test operator"},
	"as":            {Description: "Alias operator"},
	"trans":         {Description: "Translation block", Snippet: "trans %}\n    $1\n{% endtrans %}$0"},
	"endtrans":      {Description: "End translation block"},
	"pluralize":     {Description: "Pluralization in trans block"},
	"do":            {Description: "Execute expression without output", Snippet: "do $1"},
}

var cssProperties = []string{
	"color", "background-color", "font-size", "font-family", "font-weight",
	"margin", "margin-top", "margin-right", "margin-bottom", "margin-left",
	"padding", "padding-top", "padding-right", "padding-bottom", "padding-left",
	"border", "border-color", "border-width", "border-style", "border-radius",
	"width", "height", "max-width", "max-height", "min-width", "min-height",
	"display", "position", "top", "right", "bottom", "left", "z-index",
	"float", "clear", "overflow", "visibility", "opacity",
	"text-align", "text-decoration", "text-transform", "line-height",
	"vertical-align", "white-space", "word-wrap", "word-break",
	"flex", "flex-direction", "justify-content", "align-items", "align-content",
	"grid", "grid-template-columns", "grid-template-rows", "grid-gap",
	"box-shadow", "text-shadow", "transform", "transition", "animation",
}

var commonClasses = []string{
	"container", "row", "col", "col-md-6", "col-lg-4",
	"btn", "btn-primary", "btn-secondary", "btn-success", "btn-danger",
	"form-control", "form-group", "form-label",
	"nav", "navbar", "nav-link", "nav-item",
	"card", "card-body", "card-header", "card-footer",
	"table", "table-striped", "table-bordered",
	"text-center", "text-left", "text-right",
	"d-flex", "d-block", "d-none", "d-inline",
	"mb-3", "mt-3", "p-3", "m-3",
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// TagDoc returns the documentation for an HTML tag.
func TagDoc(name string) (string, bool) {
	info, ok := htmlTags[name]
	return info.Description, ok
}

// AttributeDoc returns the documentation for an HTML attribute.
func AttributeDoc(name string) (string, bool) {
	info, ok := htmlAttributes[name]
	return info.Description, ok
}

// FilterDoc returns the documentation for a template filter.
func FilterDoc(name string) (string, bool) {
	info, ok := jinjaFilters[name]
	return info.Description, ok
}

// FunctionDoc returns the documentation for a template global function.
func FunctionDoc(name string) (string, bool) {
	info, ok := jinjaFunctions[name]
	return info.Description, ok
}

// TestDoc returns the documentation for a template test.
func TestDoc(name string) (string, bool) {
	info, ok := jinjaTests[name]
	return info.Description, ok
}

// KeywordDoc returns the documentation for a template keyword.
func KeywordDoc(name string) (string, bool) {
	info, ok := jinjaKeywords[name]
	return info.Description, ok
}
