// Package absolute converts records whose default season is the absolute
// marker ("a") into per-season numbering using AniDB episode lists and the
// other provider's season/episode metadata.
//
// For collections sourced from AniDB the seasons of the other side become
// season mappings under AniDB season "1". For collections sourced from the
// other side each qualifying season is created with season-scoped parameters
// locating it inside the AniDB numbering.
package absolute
