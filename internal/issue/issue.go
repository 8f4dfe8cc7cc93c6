// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"github.com/charmbracelet/glamour"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

type Id int

const (
	ModuleNotFoundId Id = iota + 1
	DescriptorInvalidId
	MissingRequesterId
	TransportFailedId
	LibraryMissingId
	CacheWriteFailedId
	PluginLoadFailedId
	NoPluginBackendId
	ConfigLoadFailedId
)

type MarkdownMsg string

type HttpLink string

type Issue struct {
	id       Id          // ID used to lookup the issue
	mdMsg    MarkdownMsg // Markdown text that will be rendered
	extLinks []HttpLink  // external links that might be useful for the user
}

func (i *Issue) Id() Id {
	return i.id
}

func (i *Issue) MarkdownMsg() MarkdownMsg {
	return i.mdMsg
}

func (i *Issue) ExtLinks() []HttpLink {
	return slices.Clone(i.extLinks)
}

func (i *Issue) Render(stylePath string) (string, error) {
	md := string(i.mdMsg)
	if len(i.extLinks) > 0 {
		md += "\n\n## See also\n"
		for _, link := range i.extLinks {
			md += "\n- <" + string(link) + ">"
		}
	}
	return render(md, stylePath)
}

var (
	render = glamour.Render

	moduleNotFoundIssue = &Issue{
		id: ModuleNotFoundId,
		mdMsg: `
# Module not found!

None of the search locations contained the requested module or plugin.
The listing above shows every path that was checked, in order.

## Search order for bare names
1. Directory of the requesting file
2. Runtime release directory (plugins only, with --release)
3. Runtime source directory
4. NAKO_LIB
5. Runtime package directory (node_modules)
6. Directory above the runtime
7. Vendored runtimes (plugin scripts only, with --nested)
8. NAKO_HOME release and source directories
9. Each NODE_PATH entry

## Things you can try
- Check the spelling and file extension in the import directive
- Point NAKO_LIB at the directory that holds your plugins:
~~~
$ export NAKO_LIB=$HOME/nako/plugins
~~~
- Use a relative path when the module lives next to your program:
~~~
!「./lib/util.nako3」を取り込む
~~~`,
	}

	descriptorInvalidIssue = &Issue{
		id: DescriptorInvalidId,
		mdMsg: `
# Package descriptor is invalid!

A package directory was found, but its package.json could not be used.
Resolution stops here instead of silently skipping the package.

## The descriptor must
- be valid JSON with an object at the top level
- declare a non-empty string "main" entry, relative to the package directory

~~~json
{
  "name": "nadesiko3-csv",
  "main": "lib/entry.js"
}
~~~`,
		extLinks: []HttpLink{"https://docs.npmjs.com/cli/configuring-npm/package-json#main"},
	}

	missingRequesterIssue = &Issue{
		id: MissingRequesterId,
		mdMsg: `
# No requesting file!

Relative paths and bare names are searched starting from the file that
contains the import directive, but no file was given.

## Things you can try
- Pass the requesting file explicitly:
~~~
$ nakoload resolve plugin_csv.go --from ./main.nako3
~~~
- Use an absolute path or an https:// URL instead`,
	}

	transportFailedIssue = &Issue{
		id: TransportFailedId,
		mdMsg: `
# Remote fetch failed!

The server could not be reached or answered with an error status.

## Things you can try
- Open the URL in a browser to check that it exists
- Check your network connection and proxy settings (HTTPS_PROXY)
- Pin a version that is published, e.g. ` + "`pkg@1.2.3`",
	}

	libraryMissingIssue = &Issue{
		id: LibraryMissingId,
		mdMsg: `
# Library not found at this URL!

The server answered successfully, but the body says the requested file does
not exist. Some CDNs do this for unknown package versions.

## Things you can try
- Check the package name and version in the URL
- If the response is legitimate content, disable the check:
~~~cue
remote: failure_marker: ""
~~~`,
	}

	cacheWriteFailedIssue = &Issue{
		id: CacheWriteFailedId,
		mdMsg: `
# Could not write the remote plugin cache!

Remote plugins are saved to the cache directory before they are loaded.

## Things you can try
- Show the cache directory and check its permissions:
~~~
$ nakoload cache dir
~~~
- Choose another directory:
~~~
$ export NAKOLOAD_CACHE_DIR=$HOME/.cache/nakoload
~~~`,
	}

	pluginLoadFailedIssue = &Issue{
		id: PluginLoadFailedId,
		mdMsg: `
# Plugin failed to load!

The plugin file was found, but evaluating it failed. This is a problem in
the plugin itself, not in the search paths.

## Plugin contract
- Go plugins (.go) declare an exported ` + "`Plugin`" + ` value
- Lua plugins (.lua) return a table; functions in it become commands

~~~lua
return {
  hello = function(who) return "hello " .. who end,
}
~~~`,
		extLinks: []HttpLink{"https://github.com/traefik/yaegi", "https://github.com/yuin/gopher-lua"},
	}

	noPluginBackendIssue = &Issue{
		id: NoPluginBackendId,
		mdMsg: `
# No backend for this plugin type!

Plugins are loaded by file extension. This build understands .go and .lua
files, plus any plugins compiled into the binary.

## Things you can try
- Use a .go or .lua version of the plugin
- Check ` + "`nakoload config show`" + ` for the configured plugin extensions`,
	}

	configLoadFailedIssue = &Issue{
		id: ConfigLoadFailedId,
		mdMsg: `
# Failed to load configuration!

## Things you can try
- Show where the configuration file is expected:
~~~
$ nakoload config path
~~~
- Validate the CUE syntax with the cue tool
- Remove the file to fall back to the defaults`,
		extLinks: []HttpLink{"https://cuelang.org/docs/"},
	}

	issues = map[Id]*Issue{
		moduleNotFoundIssue.Id():    moduleNotFoundIssue,
		descriptorInvalidIssue.Id(): descriptorInvalidIssue,
		missingRequesterIssue.Id():  missingRequesterIssue,
		transportFailedIssue.Id():   transportFailedIssue,
		libraryMissingIssue.Id():    libraryMissingIssue,
		cacheWriteFailedIssue.Id():  cacheWriteFailedIssue,
		pluginLoadFailedIssue.Id():  pluginLoadFailedIssue,
		noPluginBackendIssue.Id():   noPluginBackendIssue,
		configLoadFailedIssue.Id():  configLoadFailedIssue,
	}
)

func Values() []*Issue {
	return maps.Values(issues)
}

func Get(id Id) *Issue {
	return issues[id]
}
