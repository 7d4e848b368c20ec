package record

// Skill names one of the eighteen actor skills.
type Skill string

const (
	SkillAlchemy     Skill = "alchemy"
	SkillAlteration  Skill = "alteration"
	SkillArchery     Skill = "archery"
	SkillBlock       Skill = "block"
	SkillConjuration Skill = "conjuration"
	SkillDestruction Skill = "destruction"
	SkillEnchanting  Skill = "enchanting"
	SkillHeavyArmor  Skill = "heavy_armor"
	SkillIllusion    Skill = "illusion"
	SkillLightArmor  Skill = "light_armor"
	SkillLockpicking Skill = "lockpicking"
	SkillOneHanded   Skill = "one_handed"
	SkillPickpocket  Skill = "pickpocket"
	SkillRestoration Skill = "restoration"
	SkillSmithing    Skill = "smithing"
	SkillSneak       Skill = "sneak"
	SkillSpeech      Skill = "speech"
	SkillTwoHanded   Skill = "two_handed"
)

var skills = map[Skill]bool{
	SkillAlchemy: true, SkillAlteration: true, SkillArchery: true,
	SkillBlock: true, SkillConjuration: true, SkillDestruction: true,
	SkillEnchanting: true, SkillHeavyArmor: true, SkillIllusion: true,
	SkillLightArmor: true, SkillLockpicking: true, SkillOneHanded: true,
	SkillPickpocket: true, SkillRestoration: true, SkillSmithing: true,
	SkillSneak: true, SkillSpeech: true, SkillTwoHanded: true,
}

// Valid reports whether s is one of the actor skills. Records may carry other
// actor values; those are left untouched by skill rules.
func (s Skill) Valid() bool {
	return skills[s]
}
