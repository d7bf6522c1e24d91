// Package presets provides a library of named, reusable export
// requests loaded from YAML files.
//
// A preset names an export request so operators can trigger recurring
// exports without rebuilding the payload each time:
//
//	name: quartz-survey
//	description: Weekly quartz entries for the materials team
//	request:
//	  query:
//	    owner: visible
//	    filters:
//	      element: Si
//	  projection:
//	    include: [id, element, temperature]
//	  format: parquet
//
// Presets come from one of two sources. The "file" source loads every
// .yaml/.yml file under a local directory and, with watching enabled,
// reloads on file changes via fsnotify with debouncing. The "git"
// source clones a repository, loads presets from a subdirectory of the
// clone, and polls the remote for new commits.
//
// Loads are atomic: a directory that fails to parse or validate leaves
// the previously loaded preset set untouched.
package presets
