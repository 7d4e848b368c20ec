// Package layerfile reads and writes load orders as YAML files.
//
// A manifest lists the layers of a load order, lowest priority first:
//
//	layers:
//	  - name: Skyrim.esm
//	    file: skyrim.yaml
//	  - name: Mod.esp
//	    file: mod.yaml
//
// Each layer file holds one entry per record. An entry names its category
// and carries the record's fields inline; a deletion is an entry with
// deleted set and no other fields:
//
//	plugin: Mod.esp
//	records:
//	  - category: npc
//	    form_key: 000600:Skyrim.esm
//	    editor_id: Bandit
//	    level: 7
//	  - category: npc
//	    form_key: 000601:Skyrim.esm
//	    deleted: true
//
// Unknown fields are rejected so typos surface as errors.
package layerfile
