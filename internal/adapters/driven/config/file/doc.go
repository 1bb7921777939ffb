// Package file keeps docsight's user-editable settings on disk: the TOML
// configuration file and the prompt templates, both under the docsight home
// directory (~/.docsight, or $DOCSIGHT_HOME).
package file
